// Package main provides the studioctl CLI, a JSON-RPC client for the
// webstudio daemon.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	daemonAddr string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "studioctl",
	Short: "Control a running webstudio daemon",
	Long:  `studioctl talks JSON-RPC to the webstudio daemon: project lifecycle, tree edits, undo history, search and AI prompts.`,
}

// call dials the daemon, sends one request and decodes the result.
func call(method string, params any) (json.RawMessage, error) {
	conn, err := net.DialTimeout("tcp", daemonAddr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", daemonAddr, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("daemon: %s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	return resp.Result, nil
}

// run calls the daemon and pretty-prints the result.
func run(method string, params any) error {
	result, err := call(method, params)
	if err != nil {
		return err
	}
	var pretty any
	if err := json.Unmarshal(result, &pretty); err != nil {
		fmt.Println(string(result))
		return nil
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("GetStatus", nil)
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload daemon configuration from settings.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("ReloadConfig", nil)
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project lifecycle commands",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Project.List", nil)
	},
}

var projectTemplate string

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project from a starter template and open it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Project.Create", map[string]any{"name": args[0], "template": projectTemplate})
	},
}

var projectOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a stored project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Project.Open", map[string]any{"id": args[0]})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Project.Delete", map[string]any{"id": args[0]})
	},
}

var projectDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id> <new-name>",
	Short: "Copy a stored project under a new name and open the copy",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Project.Duplicate", map[string]any{"id": args[0], "name": args[1]})
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "File tree commands on the active project",
}

var treeLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all paths in the active project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Tree.List", nil)
	},
}

var treeCatCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a file's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := call("Tree.ReadFile", map[string]any{"path": args[0]})
		if err != nil {
			return err
		}
		var out struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(result, &out); err != nil {
			return err
		}
		fmt.Print(out.Content)
		return nil
	},
}

var treeNewDir bool

var treeNewCmd = &cobra.Command{
	Use:   "new <parent-path> <name>",
	Short: "Create an empty file (or folder with --dir)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Tree.CreateNode", map[string]any{
			"parent_path": args[0],
			"name":        args[1],
			"is_dir":      treeNewDir,
		})
	},
}

var treeWriteCmd = &cobra.Command{
	Use:   "write <path> <local-file>",
	Short: "Write a local file's contents into a project file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return run("Tree.UpdateFile", map[string]any{"path": args[0], "content": string(data)})
	},
}

var treeRmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a file or folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Tree.Delete", map[string]any{"path": args[0]})
	},
}

var treeMvCmd = &cobra.Command{
	Use:   "mv <path> <target-parent>",
	Short: "Move a node under another folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Tree.Move", map[string]any{"source_path": args[0], "target_parent_path": args[1]})
	},
}

var treeRenameCmd = &cobra.Command{
	Use:   "rename <path> <new-name>",
	Short: "Rename a file or folder in place",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Tree.Rename", map[string]any{"path": args[0], "new_name": args[1]})
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Restore the previous tree snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("History.Undo", nil)
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Restore the next tree snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("History.Redo", nil)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the undo log shape",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("History.Info", nil)
	},
}

var (
	searchCase  bool
	searchWord  bool
	searchRegex bool
	searchGlob  string
)

func searchOptions() map[string]any {
	return map[string]any{
		"case_sensitive": searchCase,
		"whole_word":     searchWord,
		"regex":          searchRegex,
		"include_glob":   searchGlob,
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Search.Query", map[string]any{"query": args[0], "options": searchOptions()})
	},
}

var replaceAllCmd = &cobra.Command{
	Use:   "replace-all <query> <replacement>",
	Short: "Replace every match across the project (one undo step)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Search.ReplaceAll", map[string]any{
			"query":       args[0],
			"replacement": args[1],
			"options":     searchOptions(),
			"confirmed":   true,
		})
	},
}

var replaceOneCmd = &cobra.Command{
	Use:   "replace-one <path> <line> <query> <replacement>",
	Short: "Replace a single match at a known location",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("line must be a number: %w", err)
		}
		return run("Search.ReplaceOne", map[string]any{
			"path":        args[0],
			"line_number": line,
			"query":       args[2],
			"replacement": args[3],
			"options":     searchOptions(),
		})
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt <text>",
	Short: "Send an AI prompt against the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Ai.Prompt", map[string]any{"prompt": args[0]})
	},
}

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a short command in the sandbox and print its output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := call("Sandbox.Run", map[string]any{"command": args[0], "args": args[1:]})
		if err != nil {
			return err
		}
		var out struct {
			ExitCode int      `json:"exit_code"`
			Output   []string `json:"output"`
		}
		if err := json.Unmarshal(result, &out); err != nil {
			return err
		}
		for _, line := range out.Output {
			fmt.Println(line)
		}
		if out.ExitCode != 0 {
			return fmt.Errorf("exit code %d", out.ExitCode)
		}
		return nil
	},
}

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Remount the active tree into the sandbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Sandbox.Resync", nil)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <out.zip>",
	Short: "Export the active project as a zip archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := call("Archive.ExportZip", nil)
		if err != nil {
			return err
		}
		var out struct {
			Name string `json:"name"`
			Data string `json:"data"`
		}
		if err := json.Unmarshal(result, &out); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(out.Data)
		if err != nil {
			return fmt.Errorf("decode archive: %w", err)
		}
		if err := os.WriteFile(args[0], raw, 0o644); err != nil {
			return err
		}
		fmt.Printf("exported %s (%d bytes)\n", out.Name, len(raw))
		return nil
	},
}

var importZipCmd = &cobra.Command{
	Use:   "import-zip <name> <in.zip>",
	Short: "Import a zip archive as a new project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return run("Archive.ImportZip", map[string]any{
			"name": args[0],
			"data": base64.StdEncoding.EncodeToString(raw),
		})
	},
}

var importDirCmd = &cobra.Command{
	Use:   "import-dir <name> <dir>",
	Short: "Import a host directory as a new project (daemon-side path)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Archive.ImportDir", map[string]any{"name": args[0], "dir": args[1]})
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr", "127.0.0.1:7610", "daemon JSON-RPC address")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")

	projectCreateCmd.Flags().StringVar(&projectTemplate, "template", "react-vite", "starter template slug")
	treeNewCmd.Flags().BoolVar(&treeNewDir, "dir", false, "create a folder instead of a file")
	for _, c := range []*cobra.Command{searchCmd, replaceAllCmd, replaceOneCmd} {
		c.Flags().BoolVar(&searchCase, "case", false, "case sensitive")
		c.Flags().BoolVar(&searchWord, "word", false, "whole word")
		c.Flags().BoolVar(&searchRegex, "regex", false, "treat query as a regular expression")
		c.Flags().StringVar(&searchGlob, "glob", "", "restrict to paths matching glob")
	}

	projectCmd.AddCommand(projectListCmd, projectCreateCmd, projectOpenCmd, projectDeleteCmd, projectDuplicateCmd)
	treeCmd.AddCommand(treeLsCmd, treeCatCmd, treeNewCmd, treeWriteCmd, treeRmCmd, treeMvCmd, treeRenameCmd)
	rootCmd.AddCommand(
		statusCmd, reloadCmd, projectCmd, treeCmd,
		undoCmd, redoCmd, historyCmd,
		searchCmd, replaceAllCmd, replaceOneCmd,
		promptCmd, runCmd, resyncCmd,
		exportCmd, importZipCmd, importDirCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
