package agents

// Route describes how the supervisor dispatches one of its delegation tools.
// Browser is handled inline by the supervisor (no specialist sub-loop) and
// Terminal routes stream the specialist output straight to the client.
type Route struct {
	Specialist string
	Terminal   bool
	Browser    bool
}

// SupervisorRoutes maps each supervisor tool name to its dispatch target.
var SupervisorRoutes = map[string]Route{
	"ask_web_search":     {Specialist: "web_search"},
	"ask_file_generator": {Specialist: "file_generator"},
	"ask_file_modifier":  {Specialist: "file_modifier"},
	"ask_browser":        {Specialist: "browser", Browser: true},
	"generate_ui_design": {Specialist: "design", Terminal: true},
	"generate_web_page":  {Specialist: "dev", Terminal: true},
}

// RoutesRequiringLink lists the specialists whose final answer must carry a
// download link. Their responses go through link extraction and injection
// before reaching the supervisor.
var RoutesRequiringLink = map[string]bool{
	"file_generator": true,
	"file_modifier":  true,
}
