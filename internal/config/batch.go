package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"macrokit/internal/engine"
)

// BatchInvocation is one [[invocation]] entry of a batch file.
type BatchInvocation struct {
	ID    string  `toml:"id"`
	Macro string  `toml:"macro"`
	Input string  `toml:"input"`
	Args  *string `toml:"args"`
}

type batchFile struct {
	Invocations []BatchInvocation `toml:"invocation"`
}

// DecodeBatch reads a batch file:
//
//	[[invocation]]
//	macro = "say_hello"
//	input = "fn greet(){ return 1; }"
//	args  = 'message = "Hello"'
func DecodeBatch(r io.Reader, name string) ([]engine.Request, error) {
	var bf batchFile
	meta, err := toml.NewDecoder(r).Decode(&bf)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", name, undecoded[0])
	}

	reqs := make([]engine.Request, 0, len(bf.Invocations))
	for i, inv := range bf.Invocations {
		if strings.TrimSpace(inv.Macro) == "" {
			return nil, fmt.Errorf("%s: invocation #%d: macro is required", name, i+1)
		}
		req := engine.Request{ID: inv.ID, Macro: inv.Macro, Input: inv.Input}
		if inv.Args != nil {
			req.Args, req.HasArgs = *inv.Args, true
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
