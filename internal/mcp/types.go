package mcp

// EmptyInput is the argument type of tools that take no arguments.
type EmptyInput struct{}

type SaveConfigInput struct {
	Config string `json:"config" jsonschema:"required,Full wallboard config as a JSON document: {version:1, monitor:{mode,value}, views:[4 x {id,url,profile}]}"`
}

type SetViewInput struct {
	ViewID  string  `json:"view_id" jsonschema:"required,Id of the view to change (e.g. topLeft)"`
	URL     string  `json:"url" jsonschema:"required,New http:// or https:// URL for the view"`
	Profile *string `json:"profile,omitempty" jsonschema:"Optional storage profile name; empty restores the default profile named after the view"`
}

type SetMonitorInput struct {
	Mode  string  `json:"mode" jsonschema:"required,One of primary, index, name_contains"`
	Value *string `json:"value,omitempty" jsonschema:"Index or name substring; ignored for primary"`
}
