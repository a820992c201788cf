package system

import (
	"context"
	"log"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
)

const scriptTimeout = time.Second

// ScriptSource reads script sources by id.
type ScriptSource interface {
	LoadScript(name string) ([]byte, error)
}

// ScriptRunner runs the tengo scripts attached to scene objects. Scripts see
// two globals: `object`, the id of the object running it, and `engine`, with
// set_flag(name, value), get_flag(name) and log(msg...).
type ScriptRunner struct {
	w      *ecs.World
	source ScriptSource
	cache  map[string]*tengo.Compiled
}

func NewScriptRunner(w *ecs.World, source ScriptSource) *ScriptRunner {
	return &ScriptRunner{w: w, source: source, cache: make(map[string]*tengo.Compiled)}
}

// ExecuteIfPresent runs the script to completion. Missing or failing scripts
// are logged and otherwise ignored.
func (r *ScriptRunner) ExecuteIfPresent(ref ScriptRef) {
	if r == nil || ref.ID == "" {
		return
	}
	compiled, err := r.compile(ref.ID)
	if err != nil {
		log.Printf("script: %s: %v", ref.ID, err)
		return
	}

	run := compiled.Clone()
	if err := run.Set("engine", r.engine(ref)); err != nil {
		log.Printf("script: %s: %v", ref.ID, err)
		return
	}
	if err := run.Set("object", ref.Object); err != nil {
		log.Printf("script: %s: %v", ref.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()
	if err := run.RunContext(ctx); err != nil {
		log.Printf("script: %s: %v", ref.ID, err)
	}
}

// Invalidate drops a compiled script so the next run reads it again. An empty
// id drops every script.
func (r *ScriptRunner) Invalidate(id string) {
	if id == "" {
		r.cache = make(map[string]*tengo.Compiled)
		return
	}
	delete(r.cache, id)
}

func (r *ScriptRunner) compile(id string) (*tengo.Compiled, error) {
	if c, ok := r.cache[id]; ok {
		return c, nil
	}
	src, err := r.source.LoadScript(id)
	if err != nil {
		return nil, err
	}

	script := tengo.NewScript(src)
	_ = script.Add("engine", map[string]any{})
	_ = script.Add("object", "")
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}
	r.cache[id] = compiled
	return compiled, nil
}

// Flags returns the script flag table, creating it on first use.
func (r *ScriptRunner) Flags() map[string]int64 {
	return scriptFlags(r.w).Values
}

func scriptFlags(w *ecs.World) *component.ScriptFlags {
	if e, ok := ecs.First(w, component.ScriptFlagsComponent.Kind()); ok {
		if flags, ok := ecs.Get(w, e, component.ScriptFlagsComponent.Kind()); ok {
			if flags.Values == nil {
				flags.Values = make(map[string]int64)
			}
			return flags
		}
	}
	flags := &component.ScriptFlags{Values: make(map[string]int64)}
	e := ecs.CreateEntity(w)
	_ = ecs.Add(w, e, component.ScriptFlagsComponent.Kind(), flags)
	return flags
}

func (r *ScriptRunner) engine(ref ScriptRef) *tengo.ImmutableMap {
	flags := scriptFlags(r.w)
	values := map[string]tengo.Object{}

	values["set_flag"] = &tengo.UserFunction{Name: "set_flag", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, ok := tengo.ToString(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "name", Expected: "string", Found: args[0].TypeName()}
		}
		v, ok := tengo.ToInt64(args[1])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "value", Expected: "int", Found: args[1].TypeName()}
		}
		flags.Values[name] = v
		return tengo.UndefinedValue, nil
	}}

	values["get_flag"] = &tengo.UserFunction{Name: "get_flag", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, ok := tengo.ToString(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "name", Expected: "string", Found: args[0].TypeName()}
		}
		return &tengo.Int{Value: flags.Values[name]}, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]any, 0, len(args)+1)
		parts = append(parts, "script: "+ref.ID+":")
		for _, a := range args {
			if s, ok := tengo.ToString(a); ok {
				parts = append(parts, s)
			} else {
				parts = append(parts, a.String())
			}
		}
		log.Println(parts...)
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
