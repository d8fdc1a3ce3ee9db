package template

import (
	"fmt"
	"strings"

	"github.com/replyforge/replyforge/pkg/models"
)

// ValidateTemplate statically checks template source without rendering it:
// brace balance, matching block open/close counts, and references to
// functions the engine does not know. Structural problems are errors;
// unknown function references are warnings because a render degrades them
// instead of failing.
func (e *Engine) ValidateTemplate(content string) models.ValidationResult {
	result := models.ValidationResult{IsValid: true}

	opens := strings.Count(content, "{{")
	closes := strings.Count(content, "}}")

	if opens != closes {
		result.IsValid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("unbalanced braces: %d opening vs %d closing", opens, closes))
	}

	ifOpens := strings.Count(content, "{{#if")
	ifCloses := strings.Count(content, "{{/if}}")

	if ifOpens != ifCloses {
		result.IsValid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("unbalanced conditional blocks: %d #if vs %d /if", ifOpens, ifCloses))
	}

	eachOpens := strings.Count(content, "{{#each")
	eachCloses := strings.Count(content, "{{/each}}")

	if eachOpens != eachCloses {
		result.IsValid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("unbalanced loop blocks: %d #each vs %d /each", eachOpens, eachCloses))
	}

	for _, match := range functionPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]

		if _, ok := e.functions[name]; !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("reference to undefined function %q", name))
		}
	}

	return result
}
