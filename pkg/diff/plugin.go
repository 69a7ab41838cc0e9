package diff

// Plugin is an ordered hook record (spec §9: "keep as an ordered sequence
// of records, no dynamic dispatch trees"). Either hook may be nil.
type Plugin struct {
	Name    string
	Version string

	// OnBeforeDiff may rewrite either input before diffing. Must be pure.
	OnBeforeDiff func(text string) string

	// OnAfterDiff may wrap or replace the result. Hooks chain: the output
	// of hook k is the input to hook k+1.
	OnAfterDiff func(result DiffResult) DiffResult
}

func runBeforeHooks(plugins []Plugin, text string) string {
	for _, p := range plugins {
		if p.OnBeforeDiff != nil {
			text = p.OnBeforeDiff(text)
		}
	}
	return text
}

func runAfterHooks(plugins []Plugin, result DiffResult) DiffResult {
	for _, p := range plugins {
		if p.OnAfterDiff != nil {
			result = p.OnAfterDiff(result)
		}
	}
	return result
}
