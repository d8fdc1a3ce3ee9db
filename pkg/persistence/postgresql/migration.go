package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflow_states (
				id VARCHAR(255) PRIMARY KEY,
				step_index INT NOT NULL DEFAULT 0,
				total_steps INT NOT NULL DEFAULT 0,
				lifecycle_status VARCHAR(50) NOT NULL,
				owner_id VARCHAR(255),
				locale VARCHAR(35),
				data JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_states_updated_at ON workflow_states(updated_at);
			CREATE INDEX idx_workflow_states_owner_id ON workflow_states(owner_id);
			CREATE INDEX idx_workflow_states_status ON workflow_states(lifecycle_status);
		`,
	}
}
