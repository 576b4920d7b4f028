// Package review implements the review session: the conversation loop with the model,
// the propose_fix tool and the diff-and-approve step that guards every file write.
package review

import "aireviewer/pkg/reviewtypes"

// ProposeFixTool is the name of the only tool offered to the model.
const ProposeFixTool = "propose_fix"

// Tool result texts sent back to the model verbatim.
const (
	AcceptedResult = "User accepted the fix. The file has been updated."
	RejectedResult = "User rejected the fix. Do not apply changes."
)

// InitialPrompt builds the single user turn that opens a review.
func InitialPrompt(fileContent string) string {
	return "Review this code:\n\n" + fileContent +
		"\n\nIf issues found, use " + ProposeFixTool +
		". After you are done (or if the user rejects), provide a detailed SUMMARY REPORT."
}

// ProposeFixDeclaration describes propose_fix to the model.
func ProposeFixDeclaration() reviewtypes.ToolDeclaration {
	return reviewtypes.ToolDeclaration{
		Name:        ProposeFixTool,
		Description: "Propose a fix for the code.",
		Parameters: []reviewtypes.ToolParameter{
			{Name: "fixed_content", Type: reviewtypes.ParameterString, Description: "The fixed code", Required: true},
			{Name: "explanation", Type: reviewtypes.ParameterString, Description: "What you fixed", Required: true},
		},
	}
}
