package output

// ExtractResult describes one entry file written by the extract command.
type ExtractResult struct {
	RunID   string `json:"run_id"`
	Bundle  string `json:"bundle"`
	SAID    string `json:"said,omitempty"`
	Format  string `json:"format"`
	Path    string `json:"path,omitempty"`
	Columns int    `json:"columns"`
	Error   string `json:"error,omitempty"`
}

// ExtractSummary is the JSON output of the extract command.
type ExtractSummary struct {
	Results   []ExtractResult `json:"results"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}

// DepsNode is one bundle in the reference graph.
type DepsNode struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Source       string   `json:"source,omitempty"`
	References   []string `json:"references"`
	ReferencedBy []string `json:"referenced_by"`
}

// DepsLevel groups bundles whose references all sit on earlier levels.
type DepsLevel struct {
	Level   int        `json:"level"`
	Bundles []DepsNode `json:"bundles"`
}

// DepsOutput is the JSON output of the deps command.
type DepsOutput struct {
	Root            string      `json:"root,omitempty"`
	Roots           []string    `json:"roots"`
	Levels          []DepsLevel `json:"levels"`
	Cycle           []string    `json:"cycle,omitempty"`
	Unresolved      []string    `json:"unresolved,omitempty"`
	TotalBundles    int         `json:"total_bundles"`
	TotalReferences int         `json:"total_references"`
}
