package camera

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// AnyParameter is the wildcard used in command descriptor trees for
// argument names or values the camera accepts without enumerating.
const AnyParameter = "*"

// ArgTree is the camera's nested command argument descriptor. Levels
// alternate between argument names and argument values; a nil subtree
// means no further arguments are permitted on that path.
type ArgTree map[string]ArgTree

// CommandDescr describes a single camera command: its HTTP method
// ("get" or "post") and the tree of permitted arguments.
type CommandDescr struct {
	Method string
	Args   ArgTree
}

// Arg is one command argument. Arguments are ordered: the descriptor
// tree is walked in the order the arguments are given, mirroring the
// order the camera documents for each command.
type Arg struct {
	Name  string
	Value string
}

// parseCommandList parses the XML answer of get_commandlist into the
// supported command descriptors, the set of supported funcs, and the
// camera's version tags.
func parseCommandList(body []byte) (map[string]CommandDescr, map[string]bool, map[string]string, error) {
	var root xmlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to parse command list: %w", err)
	}

	commands := make(map[string]CommandDescr)
	supported := make(map[string]bool)
	versions := make(map[string]string)

	for i := range root.Children {
		elem := &root.Children[i]
		switch {
		case elem.XMLName.Local == "cgi":
			name, _ := elem.attr("name")
			for j := range elem.Children {
				method := &elem.Children[j]
				if method.XMLName.Local != "http_method" {
					continue
				}
				typ, _ := method.attr("type")
				commands[name] = CommandDescr{Method: typ, Args: commandArgs(method)}
			}
		case elem.XMLName.Local == "support":
			if fn, ok := elem.attr("func"); ok {
				supported[fn] = true
			}
		case strings.Contains(elem.XMLName.Local, "version"):
			versions[elem.XMLName.Local] = strings.TrimSpace(elem.Text)
		}
	}
	return commands, supported, versions, nil
}

// commandArgs parses the value alternatives beneath an argument name
// (the <cmd1>, <cmd2>, ... elements of the command list). Returns nil
// when the command or value takes no further arguments.
func commandArgs(parent *xmlNode) ArgTree {
	cmds := make(ArgTree)
	for i := range parent.Children {
		cmd := &parent.Children[i]
		name, _ := cmd.attr("name")
		cmds[strings.TrimSpace(name)] = commandParams(cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return cmds
}

// commandParams parses the argument names permitted for a command or
// value. A nested <cmdN> child introduces a wildcard level: any value
// is accepted for the enclosing argument, followed by the nested
// command's own arguments.
func commandParams(parent *xmlNode) ArgTree {
	params := make(ArgTree)
	for i := range parent.Children {
		param := &parent.Children[i]
		if strings.HasPrefix(param.XMLName.Local, "cmd") {
			name, _ := param.attr("name")
			return ArgTree{AnyParameter: ArgTree{strings.TrimSpace(name): commandParams(param)}}
		}
		key := AnyParameter
		if name, ok := param.attr("name"); ok {
			key = strings.TrimSpace(name)
		}
		params[key] = commandArgs(param)
	}
	if len(params) == 0 {
		return ArgTree{AnyParameter: nil}
	}
	return params
}

// checkValidCommand validates a command and its arguments against the
// camera's descriptor tree before anything goes on the wire.
func (c *Client) checkValidCommand(command string, args []Arg) error {
	descr, ok := c.commands[command]
	if !ok {
		return &RequestError{Message: fmt.Sprintf(
			"command '%s' not supported; valid commands: %s",
			command, strings.Join(c.commandNames(), ", "))}
	}

	tree := descr.Args
	for _, arg := range args {
		if tree == nil {
			return &RequestError{Message: fmt.Sprintf(
				"error in %s: '%s' in %s=%s not supported",
				command, arg.Name, arg.Name, arg.Value)}
		}

		values, ok := tree[arg.Name]
		if !ok {
			values, ok = tree[AnyParameter]
		}
		if !ok {
			return &RequestError{Message: fmt.Sprintf(
				"error in %s: '%s' in %s=%s not supported; supported: %s",
				command, arg.Name, arg.Name, arg.Value, strings.Join(treeKeys(tree), ", "))}
		}

		if values == nil {
			return &RequestError{Message: fmt.Sprintf(
				"error in %s: '%s' in %s=%s not supported",
				command, arg.Value, arg.Name, arg.Value)}
		}
		next, ok := values[arg.Value]
		if !ok {
			next, ok = values[AnyParameter]
		}
		if !ok {
			return &RequestError{Message: fmt.Sprintf(
				"error in %s: '%s' in %s=%s not supported; supported: %s",
				command, arg.Value, arg.Name, arg.Value, strings.Join(treeKeys(values), ", "))}
		}
		tree = next
	}
	return nil
}

// commandNames returns the known command names for error messages.
func (c *Client) commandNames() []string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	return names
}

func treeKeys(t ArgTree) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	return keys
}
