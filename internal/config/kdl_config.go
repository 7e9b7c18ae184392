package config

import (
	"bytes"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL loads .magentointel.kdl from dir on top of Default().
// Returns nil, nil when the file does not exist.
func LoadKDL(dir string) (*Config, error) {
	content, ok, err := readIfExists(filepath.Join(dir, KDLFileName))
	if err != nil || !ok {
		return nil, err
	}
	cfg := Default()
	cfg.Project.Roots = nil
	if err := applyKDL(cfg, content); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseKDL parses a KDL document into a fresh default config
func parseKDL(content string) (*Config, error) {
	cfg := Default()
	if err := applyKDL(cfg, []byte(content)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyKDL overlays the settings present in content onto cfg
//
//	project { roots "." "../shop"; cache_dir ".magentointel-cache"; }
//	tokenizer { backend "php"; php_binary "php"; timeout_ms 3000; memo_capacity 64; persistent_cache true; }
//	completion { max_results 0; fuzzy_threshold 0.7; }
//	watch { enabled false; debounce_ms 200; }
func applyKDL(cfg *Config, content []byte) error {
	if err := checkBraces(content); err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}
	doc, err := kdl.Parse(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "roots", "root":
					if roots := collectStringArgs(cn); len(roots) > 0 {
						cfg.Project.Roots = roots
					}
				case "cache_dir":
					assignSimpleString(cn, "cache_dir", func(v string) { cfg.Project.CacheDir = v })
				}
			}
		case "tokenizer":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "backend":
					assignSimpleString(cn, "backend", func(v string) { cfg.Tokenizer.Backend = v })
				case "php_binary":
					assignSimpleString(cn, "php_binary", func(v string) { cfg.Tokenizer.PHPBinary = v })
				case "timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Tokenizer.TimeoutMs = v
					}
				case "memo_capacity":
					if v, ok := firstIntArg(cn); ok {
						cfg.Tokenizer.MemoCapacity = v
					}
				case "persistent_cache":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Tokenizer.PersistentCache = b
					}
				}
			}
		case "completion":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Completion.MaxResults = v
					}
				case "fuzzy_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Completion.FuzzyThreshold = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		}
	}

	return nil
}

// Helper functions over the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}
func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}
func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}
func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		log.Printf("WARNING: invalid float value for '%s' in KDL config, expected number but got %T", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block form: roots { "." "../shop" } stores each string as a child node name
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}
func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// checkBraces rejects unbalanced child blocks and unterminated strings or
// comments. kdl-go accepts a document that ends inside an open block and
// keeps the nodes read so far.
func checkBraces(content []byte) error {
	depth, line := 0, 1
	for i := 0; i < len(content); i++ {
		switch c := content[i]; {
		case c == '\n':
			line++
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			for i < len(content) && content[i] != '\n' {
				i++
			}
			line++
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			start, nest := line, 0
			for ; i < len(content); i++ {
				if content[i] == '\n' {
					line++
				} else if content[i] == '/' && i+1 < len(content) && content[i+1] == '*' {
					nest++
					i++
				} else if content[i] == '*' && i+1 < len(content) && content[i+1] == '/' {
					nest--
					i++
					if nest == 0 {
						break
					}
				}
			}
			if nest != 0 {
				return fmt.Errorf("line %d: unterminated comment", start)
			}
		case c == 'r' && rawStringStart(content, i):
			hashes := 0
			for i++; content[i] == '#'; i++ {
				hashes++
			}
			end := `"` + strings.Repeat("#", hashes)
			n := strings.Index(string(content[i+1:]), end)
			if n < 0 {
				return fmt.Errorf("line %d: unterminated raw string", line)
			}
			line += bytes.Count(content[i+1:i+1+n], []byte("\n"))
			i += n + len(end)
		case c == '"':
			start := line
			for i++; i < len(content) && content[i] != '"'; i++ {
				if content[i] == '\\' {
					i++
				} else if content[i] == '\n' {
					line++
				}
			}
			if i >= len(content) {
				return fmt.Errorf("line %d: unterminated string", start)
			}
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("line %d: unexpected '}'", line)
			}
		}
	}
	if depth > 0 {
		return fmt.Errorf("unterminated block: %d '{' left open", depth)
	}
	return nil
}

// rawStringStart reports whether a KDL raw string (r"..." or r#"..."#)
// starts at content[i]
func rawStringStart(content []byte, i int) bool {
	if i > 0 {
		if p := content[i-1]; p == '_' || p == '-' || p >= 'a' && p <= 'z' || p >= 'A' && p <= 'Z' || p >= '0' && p <= '9' {
			return false
		}
	}
	j := i + 1
	for j < len(content) && content[j] == '#' {
		j++
	}
	return j < len(content) && content[j] == '"'
}
