package agent

import (
	"context"
	"fmt"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/registry"
	"github.com/conclave-ai/conclave/tool"
)

// Factory locator keys. Specs reference agent behaviors through these keys;
// new behaviors enter via registry.RegisterFactory, never via type switches.
const (
	FactoryDialogue  = "dialogue"
	FactoryDatabase  = "database"
	FactoryFormatter = "formatter"
)

// RegisterBuiltinFactories installs the built-in agent factories on a
// registry.
func RegisterBuiltinFactories(reg *registry.Registry) {
	reg.RegisterFactory(FactoryDialogue, DialogueFactory)
	reg.RegisterFactory(FactoryDatabase, DatabaseFactory)
	reg.RegisterFactory(FactoryFormatter, FormatterFactory)
}

// DialogueFactory builds an agent that rewrites text through the dialogue
// tool server (yell, sarcasm). The tool catalog is fetched from the MCP
// server configured under the agent's name, so resolution blocks on server
// startup and fails with the underlying cause when the server is down.
func DialogueFactory(ctx context.Context, deps registry.Deps) (core.Agent, error) {
	tools, err := fetchServerTools(ctx, deps)
	if err != nil {
		return nil, err
	}

	return NewModelAgent(deps.Spec.Name, deps.Model, func(o *ModelAgentOptions) {
		o.Description = "Rewrites text in different tones of voice using dialogue tools"
		o.Instructions = fmt.Sprintf(
			"You are %s. You rewrite text using your tools and reply with the transformed text only. "+
				"Pick the tool that matches the requested tone.", deps.Spec.Name)
		o.Tools = tools
		o.Logger = deps.Logger
	}), nil
}

// DatabaseFactory builds an agent that answers questions against a database
// through the query tool server (list_tables, describe_table, query).
func DatabaseFactory(ctx context.Context, deps registry.Deps) (core.Agent, error) {
	tools, err := fetchServerTools(ctx, deps)
	if err != nil {
		return nil, err
	}

	return NewModelAgent(deps.Spec.Name, deps.Model, func(o *ModelAgentOptions) {
		o.Description = "Answers questions about the database by running read-only queries"
		o.Instructions = fmt.Sprintf(
			"You are %s, a database analyst. Explore the schema with list_tables and "+
				"describe_table before querying. Run only SELECT statements and never ask "+
				"for more than 10 rows. Summarize results in plain language.", deps.Spec.Name)
		o.Tools = tools
		o.Logger = deps.Logger
	}), nil
}

// FormatterFactory builds a tool-less agent that cleans up the team's raw
// output into a presentable final answer.
func FormatterFactory(ctx context.Context, deps registry.Deps) (core.Agent, error) {
	return NewModelAgent(deps.Spec.Name, deps.Model, func(o *ModelAgentOptions) {
		o.Description = "Formats the team's findings into a clear final answer"
		o.Instructions = fmt.Sprintf(
			"You are %s. Take the results produced so far and present them clearly and "+
				"concisely for the user. Do not add new information.", deps.Spec.Name)
		o.Logger = deps.Logger
	}), nil
}

// fetchServerTools fetches the tool catalog from the MCP server configured
// under the spec's name.
func fetchServerTools(ctx context.Context, deps registry.Deps) ([]tool.Tool, error) {
	var cfg *tool.ServerConfig
	for i := range deps.MCPServers {
		if deps.MCPServers[i].Name == deps.Spec.Name {
			cfg = &deps.MCPServers[i]
			break
		}
	}
	if cfg == nil {
		return nil, fmt.Errorf("no tool server configured for agent %q", deps.Spec.Name)
	}

	catalog, err := tool.FetchCatalog(ctx, *cfg, deps.Logger)
	if err != nil {
		return nil, err
	}
	return catalog.Tools(), nil
}
