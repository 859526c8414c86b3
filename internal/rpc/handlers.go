package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/yourorg/webstudio-go/internal/ai"
	"github.com/yourorg/webstudio-go/internal/archive"
	"github.com/yourorg/webstudio-go/internal/config"
	"github.com/yourorg/webstudio-go/internal/search"
	"github.com/yourorg/webstudio-go/internal/session"
	"github.com/yourorg/webstudio-go/internal/state"
	"github.com/yourorg/webstudio-go/internal/storage"
	"github.com/yourorg/webstudio-go/internal/tree"
	"github.com/yourorg/webstudio-go/internal/version"
)

// errToRPC maps domain errors onto JSON-RPC error objects. Validation
// rejections and external failures get distinct codes so clients can
// tell "you may not" from "it broke".
func errToRPC(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrProtectedPath),
		errors.Is(err, session.ErrBatchInFlight),
		errors.Is(err, session.ErrNotAFile),
		errors.Is(err, tree.ErrDuplicateName),
		errors.Is(err, tree.ErrCyclicMove),
		errors.Is(err, tree.ErrInvalidName),
		errors.Is(err, search.ErrInvalidPattern):
		return &Error{Code: CodeRejected, Message: err.Error()}
	case errors.Is(err, session.ErrNoProject),
		errors.Is(err, session.ErrPathNotFound),
		errors.Is(err, tree.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	default:
		return &Error{Code: CodeFailed, Message: err.Error()}
	}
}

func decode[T any](params json.RawMessage, p *T) *Error {
	if len(params) == 0 {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}
	if err := json.Unmarshal(params, p); err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return nil
}

// RegisterCore registers every studio method.
func (s *Server) RegisterCore(cfg *config.Config, st *state.State, sess *session.Session, aiSvc *ai.Service) {
	s.registerProject(sess)
	s.registerTree(sess)
	s.registerHistory(sess)
	s.registerSearch(sess)
	s.registerBuffers(sess)
	s.registerArchive(sess)
	s.registerAi(aiSvc)

	s.Register("GetStatus", func(params json.RawMessage) (any, *Error) {
		return map[string]any{
			"status": string(st.Status()),
			"data": map[string]any{
				"http":   cfg.HTTPAddr,
				"listen": cfg.Listen,
				"data":   cfg.DataDir,
				"ver":    version.Version,
			},
		}, nil
	})

	s.Register("ReloadConfig", func(params json.RawMessage) (any, *Error) {
		if err := cfg.Reload(); err != nil {
			return nil, &Error{Code: CodeFailed, Message: "reload failed: " + err.Error()}
		}
		return map[string]any{"status": "ok", "message": "config reloaded"}, nil
	})

	s.Register("Sandbox.Resync", func(params json.RawMessage) (any, *Error) {
		if err := sess.ResyncRuntime(); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})

	// Sandbox.Run executes a short command to completion and returns its
	// collected output. Long-running processes (dev servers) belong on the
	// /ws/process websocket instead.
	s.Register("Sandbox.Run", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Command        string   `json:"command"`
			Args           []string `json:"args,omitempty"`
			TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if p.Command == "" {
			return nil, &Error{Code: CodeInvalidParams, Message: "command required"}
		}
		if p.TimeoutSeconds <= 0 {
			p.TimeoutSeconds = 120
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.TimeoutSeconds)*time.Second)
		defer cancel()

		proc, err := sess.RunProcess(ctx, p.Command, p.Args...)
		if err != nil {
			return nil, errToRPC(err)
		}
		var lines []string
		for line := range proc.Output {
			lines = append(lines, line)
		}
		code, err := proc.Wait()
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"exit_code": code, "output": lines}, nil
	})
}

func (s *Server) registerProject(sess *session.Session) {
	s.Register("Project.Create", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Template string `json:"template"`
			Name     string `json:"name"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if p.Name == "" {
			return nil, &Error{Code: CodeInvalidParams, Message: "name required"}
		}
		if p.Template == "" {
			p.Template = "react-vite"
		}
		proj, err := sess.CreateFromTemplate(p.Template, p.Name)
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"id": proj.ID, "name": proj.Name}, nil
	})

	s.Register("Project.List", func(params json.RawMessage) (any, *Error) {
		infos, err := sess.ListProjects()
		if err != nil {
			return nil, errToRPC(err)
		}
		return infos, nil
	})

	s.Register("Project.Open", func(params json.RawMessage) (any, *Error) {
		var p struct {
			ID string `json:"id"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.Open(p.ID); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})

	s.Register("Project.Delete", func(params json.RawMessage) (any, *Error) {
		var p struct {
			ID string `json:"id"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.DeleteProject(p.ID); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})

	s.Register("Project.Duplicate", func(params json.RawMessage) (any, *Error) {
		var p struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		proj, err := sess.DuplicateProject(p.ID, p.Name)
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"id": proj.ID, "name": proj.Name}, nil
	})

	s.Register("Project.Active", func(params json.RawMessage) (any, *Error) {
		proj, err := sess.Active()
		if err != nil {
			return nil, errToRPC(err)
		}
		return proj, nil
	})
}

func (s *Server) registerTree(sess *session.Session) {
	s.Register("Tree.List", func(params json.RawMessage) (any, *Error) {
		proj, err := sess.Active()
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"paths": tree.ListAllPaths(proj.Root)}, nil
	})

	s.Register("Tree.ReadFile", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Path string `json:"path"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		proj, err := sess.Active()
		if err != nil {
			return nil, errToRPC(err)
		}
		n := tree.Find(proj.Root, p.Path)
		if n == nil || n.IsDir {
			return nil, errToRPC(session.ErrPathNotFound)
		}
		return map[string]any{"path": n.Path, "content": n.Content}, nil
	})

	s.Register("Tree.CreateNode", func(params json.RawMessage) (any, *Error) {
		var p struct {
			ParentPath string `json:"parent_path"`
			Name       string `json:"name"`
			IsDir      bool   `json:"is_dir"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.CreateNode(p.ParentPath, p.Name, p.IsDir); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})

	s.Register("Tree.Rename", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Path    string `json:"path"`
			NewName string `json:"new_name"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.RenameNode(p.Path, p.NewName); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})

	s.Register("Tree.Move", func(params json.RawMessage) (any, *Error) {
		var p struct {
			SourcePath       string `json:"source_path"`
			TargetParentPath string `json:"target_parent_path"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.MoveNode(p.SourcePath, p.TargetParentPath); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})

	s.Register("Tree.Delete", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Path string `json:"path"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.DeleteNode(p.Path); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})

	s.Register("Tree.UpdateFile", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.UpdateFile(p.Path, p.Content); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})
}

func (s *Server) registerHistory(sess *session.Session) {
	s.Register("History.Info", func(params json.RawMessage) (any, *Error) {
		info, err := sess.History()
		if err != nil {
			return nil, errToRPC(err)
		}
		return info, nil
	})
	s.Register("History.Undo", func(params json.RawMessage) (any, *Error) {
		moved, err := sess.Undo()
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"moved": moved}, nil
	})
	s.Register("History.Redo", func(params json.RawMessage) (any, *Error) {
		moved, err := sess.Redo()
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"moved": moved}, nil
	})
}

func (s *Server) registerSearch(sess *session.Session) {
	s.Register("Search.Query", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Query   string         `json:"query"`
			Options search.Options `json:"options"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		results, err := sess.Search(p.Query, p.Options)
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"results": results}, nil
	})

	s.Register("Search.ReplaceOne", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Path        string         `json:"path"`
			LineNumber  int            `json:"line_number"`
			Query       string         `json:"query"`
			Options     search.Options `json:"options"`
			Replacement string         `json:"replacement"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.ReplaceOne(p.Path, p.LineNumber, p.Query, p.Options, p.Replacement); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})

	s.Register("Search.ReplaceAll", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Query       string         `json:"query"`
			Options     search.Options `json:"options"`
			Replacement string         `json:"replacement"`
			Confirmed   bool           `json:"confirmed"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if !p.Confirmed {
			return nil, &Error{Code: CodeRejected, Message: "replace-all requires confirmed=true"}
		}
		count, err := sess.ReplaceAll(p.Query, p.Options, p.Replacement)
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"replaced": count}, nil
	})
}

func (s *Server) registerBuffers(sess *session.Session) {
	s.Register("Buffer.Open", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Path string `json:"path"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		b, err := sess.OpenBuffer(p.Path)
		if err != nil {
			return nil, errToRPC(err)
		}
		return b, nil
	})
	s.Register("Buffer.Close", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Path string `json:"path"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		sess.CloseBuffer(p.Path)
		return map[string]any{"status": "ok"}, nil
	})
	s.Register("Buffer.Override", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if err := sess.SetBufferOverride(p.Path, p.Content); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"status": "ok"}, nil
	})
	s.Register("Buffer.List", func(params json.RawMessage) (any, *Error) {
		return map[string]any{"buffers": sess.Buffers()}, nil
	})
}

func (s *Server) registerArchive(sess *session.Session) {
	s.Register("Archive.ExportZip", func(params json.RawMessage) (any, *Error) {
		proj, err := sess.Active()
		if err != nil {
			return nil, errToRPC(err)
		}
		var buf bytes.Buffer
		if err := archive.ExportZip(proj.Root, &buf); err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{
			"name": proj.Name,
			"data": base64.StdEncoding.EncodeToString(buf.Bytes()),
		}, nil
	})

	s.Register("Archive.ImportZip", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Name string `json:"name"`
			Data string `json:"data"` // base64 zip bytes
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		raw, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: "invalid base64 data"}
		}
		root, err := archive.ImportZip(bytes.NewReader(raw), int64(len(raw)))
		if err != nil {
			return nil, errToRPC(err)
		}
		proj, err := sess.ImportProject(p.Name, root)
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"id": proj.ID, "files": len(tree.ListAllPaths(root))}, nil
	})

	s.Register("Archive.ImportDir", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Name string `json:"name"`
			Dir  string `json:"dir"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		root, err := archive.ImportDir(p.Dir)
		if err != nil {
			return nil, errToRPC(err)
		}
		proj, err := sess.ImportProject(p.Name, root)
		if err != nil {
			return nil, errToRPC(err)
		}
		return map[string]any{"id": proj.ID, "files": len(tree.ListAllPaths(root))}, nil
	})
}

func (s *Server) registerAi(aiSvc *ai.Service) {
	s.Register("Ai.Prompt", func(params json.RawMessage) (any, *Error) {
		var p struct {
			Prompt      string          `json:"prompt"`
			Attachments []ai.Attachment `json:"attachments,omitempty"`
		}
		if e := decode(params, &p); e != nil {
			return nil, e
		}
		if p.Prompt == "" {
			return nil, &Error{Code: CodeInvalidParams, Message: "prompt required"}
		}
		res, err := aiSvc.Prompt(context.Background(), p.Prompt, p.Attachments)
		if err != nil {
			return nil, errToRPC(err)
		}
		return res, nil
	})
}
