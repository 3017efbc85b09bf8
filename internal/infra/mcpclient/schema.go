package mcpclient

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"cmdbridge/internal/domain"
)

// toolInfoFromMCP converts an MCP tool into the uniform tool shape. Required
// parameters keep the schema's `required` declaration order because
// positional argument mapping depends on it; optional parameters follow,
// sorted by name for stable output.
func toolInfoFromMCP(tool *mcp.Tool) domain.ToolInfo {
	if tool == nil {
		return domain.ToolInfo{}
	}
	info := domain.ToolInfo{
		Name:        tool.Name,
		Description: tool.Description,
	}

	schema := decodeInputSchema(tool.InputSchema)
	if schema == nil {
		return info
	}

	requiredSet := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		requiredSet[name] = struct{}{}
	}

	for _, name := range schema.Required {
		prop, ok := schema.Properties[name]
		if !ok {
			prop = &jsonschema.Schema{}
		}
		info.Params = append(info.Params, domain.ToolParam{
			Name:        name,
			Type:        prop.Type,
			Description: prop.Description,
			Required:    true,
		})
	}

	var optional []string
	for name := range schema.Properties {
		if _, ok := requiredSet[name]; !ok {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	for _, name := range optional {
		prop := schema.Properties[name]
		param := domain.ToolParam{
			Name:        name,
			Type:        prop.Type,
			Description: prop.Description,
		}
		if len(prop.Default) > 0 {
			param.Default = string(prop.Default)
		}
		info.Params = append(info.Params, param)
	}

	return info
}

func decodeInputSchema(raw any) *jsonschema.Schema {
	if raw == nil {
		return nil
	}
	if schema, ok := raw.(*jsonschema.Schema); ok {
		return schema
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil
	}
	return &schema
}

// contentFromMCP flattens tool output content. Text items pass through;
// anything structured is stringified as JSON.
func contentFromMCP(items []mcp.Content) []domain.ContentItem {
	out := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		if text, ok := item.(*mcp.TextContent); ok {
			out = append(out, domain.ContentItem{Type: "text", Text: text.Text})
			continue
		}
		data, err := json.Marshal(item)
		if err != nil {
			data = []byte(fmt.Sprintf("%v", item))
		}
		out = append(out, domain.ContentItem{Type: "json", Text: string(data)})
	}
	return out
}
