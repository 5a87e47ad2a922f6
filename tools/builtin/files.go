package builtin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/rickchristie/gentrun"
)

type readFileInput struct {
	Path   string `json:"path" jsonschema:"description=File path relative to the working directory,minLength=1"`
	Offset int    `json:"offset,omitempty" jsonschema:"description=First line to return (1-based),minimum=1"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of lines to return,minimum=1"`
}

// ReadFile returns the read_file tool confined to root.
func ReadFile(root string, maxBytes int) gentrun.Tool {
	return gentrun.NewToolFunc(ReadFileName,
		"Reads a text file and returns its lines prefixed with line numbers.",
		func(_ context.Context, in readFileInput) (*gentrun.ToolResult, error) {
			path, err := resolve(root, in.Path)
			if err != nil {
				return nil, err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fsError(in.Path, err)
			}

			lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
			start := 1
			if in.Offset > 0 {
				start = in.Offset
			}
			if start > len(lines) {
				return nil, gentrun.NewToolError(gentrun.ToolErrValidation,
					"offset %d is past the end of %s (%d lines)", start, in.Path, len(lines))
			}
			end := len(lines)
			if in.Limit > 0 && start-1+in.Limit < end {
				end = start - 1 + in.Limit
			}

			var sb strings.Builder
			for i := start; i <= end; i++ {
				fmt.Fprintf(&sb, "%d | %s\n", i, lines[i-1])
			}
			return &gentrun.ToolResult{
				Title:  fmt.Sprintf("Read %s (lines %d-%d of %d)", in.Path, start, end, len(lines)),
				Output: truncate(sb.String(), maxBytes),
			}, nil
		},
	)
}

type listDirInput struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory relative to the working directory; defaults to it"`
}

// ListDir returns the list_dir tool confined to root.
func ListDir(root string) gentrun.Tool {
	return gentrun.NewToolFunc(ListDirName,
		"Lists the entries of a directory. Directories end with a slash.",
		func(_ context.Context, in listDirInput) (*gentrun.ToolResult, error) {
			path, err := resolve(root, in.Path)
			if err != nil {
				return nil, err
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, fsError(in.Path, err)
			}

			names := make([]string, 0, len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)

			display := in.Path
			if display == "" {
				display = "."
			}
			return &gentrun.ToolResult{
				Title:  fmt.Sprintf("Listed %s (%d entries)", display, len(names)),
				Output: names,
			}, nil
		},
	)
}

// fsError maps filesystem errors to tool error codes.
func fsError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return gentrun.NewToolError(gentrun.ToolErrNotFound, "%s does not exist", path)
	case errors.Is(err, fs.ErrPermission):
		return gentrun.NewToolError(gentrun.ToolErrPermission, "permission denied reading %s", path)
	default:
		return gentrun.NewToolError(gentrun.ToolErrIO, "%v", err)
	}
}
