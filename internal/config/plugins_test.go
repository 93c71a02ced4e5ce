package config

import "testing"

func TestCompileHooksPreservesRegistrationOrder(t *testing.T) {
	var order []string
	plugins := []Plugin{
		{Name: "a", Setup: func(b PluginBuild) {
			b.OnLoad(Filter{}, func(args OnLoadArgs) (OnLoadResult, error) {
				order = append(order, "a")
				return OnLoadResult{}, nil
			})
		}},
		{Name: "b", Setup: func(b PluginBuild) {
			b.OnLoad(Filter{}, func(args OnLoadArgs) (OnLoadResult, error) {
				order = append(order, "b")
				return OnLoadResult{}, nil
			})
		}},
	}

	hooks := CompileHooks(plugins)
	if len(hooks.OnLoad) != 2 {
		t.Fatalf("expected 2 onLoad hooks, got %d", len(hooks.OnLoad))
	}
	for _, h := range hooks.OnLoad {
		h.Callback(OnLoadArgs{Path: "/x"})
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected registration order [a b], got %v", order)
	}
}

func TestCompileHooksSkipsNilSetup(t *testing.T) {
	hooks := CompileHooks([]Plugin{{Name: "no-setup"}})
	if len(hooks.OnResolve) != 0 || len(hooks.OnLoad) != 0 {
		t.Fatalf("expected no hooks from a plugin with nil Setup, got %+v", hooks)
	}
}

func TestRunOnResolveFirstNonEmptyWins(t *testing.T) {
	var calledSecond bool
	plugins := []Plugin{
		{Name: "skip", Setup: func(b PluginBuild) {
			b.OnResolve(Filter{Pattern: `\.nomatch$`}, func(args OnResolveArgs) (OnResolveResult, error) {
				return OnResolveResult{Path: "/should-not-run"}, nil
			})
		}},
		{Name: "match", Setup: func(b PluginBuild) {
			b.OnResolve(Filter{}, func(args OnResolveArgs) (OnResolveResult, error) {
				return OnResolveResult{Path: "/resolved/by/plugin.js"}, nil
			})
		}},
		{Name: "unreached", Setup: func(b PluginBuild) {
			b.OnResolve(Filter{}, func(args OnResolveArgs) (OnResolveResult, error) {
				calledSecond = true
				return OnResolveResult{Path: "/other.js"}, nil
			})
		}},
	}
	hooks := CompileHooks(plugins)

	res, matched, err := hooks.RunOnResolve(OnResolveArgs{Path: "virtual:thing"})
	if err != nil {
		t.Fatalf("RunOnResolve: %v", err)
	}
	if !matched {
		t.Fatal("expected a match")
	}
	if res.Path != "/resolved/by/plugin.js" {
		t.Fatalf("unexpected resolved path %q", res.Path)
	}
	if calledSecond {
		t.Fatal("hook after the first non-empty result should not have run")
	}
}

func TestRunOnResolveExternalCountsAsMatch(t *testing.T) {
	hooks := CompileHooks([]Plugin{
		{Name: "ext", Setup: func(b PluginBuild) {
			b.OnResolve(Filter{}, func(args OnResolveArgs) (OnResolveResult, error) {
				return OnResolveResult{External: true}, nil
			})
		}},
	})
	res, matched, err := hooks.RunOnResolve(OnResolveArgs{Path: "some-pkg"})
	if err != nil {
		t.Fatalf("RunOnResolve: %v", err)
	}
	if !matched || !res.External {
		t.Fatalf("expected a matched external result, got %+v matched=%v", res, matched)
	}
}

func TestRunOnLoadStopsAtFirstNonNilContents(t *testing.T) {
	second := "second"
	first := "first"
	hooks := CompileHooks([]Plugin{
		{Name: "a", Setup: func(b PluginBuild) {
			b.OnLoad(Filter{}, func(args OnLoadArgs) (OnLoadResult, error) {
				return OnLoadResult{Contents: &first}, nil
			})
		}},
		{Name: "b", Setup: func(b PluginBuild) {
			b.OnLoad(Filter{}, func(args OnLoadArgs) (OnLoadResult, error) {
				return OnLoadResult{Contents: &second}, nil
			})
		}},
	})
	res, matched, err := hooks.RunOnLoad(OnLoadArgs{Path: "/x.scss"})
	if err != nil {
		t.Fatalf("RunOnLoad: %v", err)
	}
	if !matched || res.Contents == nil || *res.Contents != "first" {
		t.Fatalf("expected first hook's contents to win, got %+v matched=%v", res, matched)
	}
}

func TestRunOnTransformChainsEveryMatch(t *testing.T) {
	hooks := CompileHooks([]Plugin{
		{Name: "upper", Setup: func(b PluginBuild) {
			b.OnTransform(Filter{}, func(args OnTransformArgs) (OnTransformResult, error) {
				return OnTransformResult{Code: args.Code + "-a"}, nil
			})
		}},
		{Name: "append", Setup: func(b PluginBuild) {
			b.OnTransform(Filter{}, func(args OnTransformArgs) (OnTransformResult, error) {
				return OnTransformResult{Code: args.Code + "-b"}, nil
			})
		}},
	})
	code, err := hooks.RunOnTransform("/x.js", "src", LoaderJS)
	if err != nil {
		t.Fatalf("RunOnTransform: %v", err)
	}
	if code != "src-a-b" {
		t.Fatalf("expected chained transform output, got %q", code)
	}
}

func TestRunOnStartAndOnEndOrderAndErrors(t *testing.T) {
	var started, ended []string
	hooks := CompileHooks([]Plugin{
		{Name: "a", Setup: func(b PluginBuild) {
			b.OnStart(func() error { started = append(started, "a"); return nil })
			b.OnEnd(func(hadErrors bool) error { ended = append(ended, "a"); return nil })
		}},
		{Name: "b", Setup: func(b PluginBuild) {
			b.OnStart(func() error { started = append(started, "b"); return nil })
			b.OnEnd(func(hadErrors bool) error { ended = append(ended, "b"); return nil })
		}},
	})

	if err := hooks.RunOnStart(); err != nil {
		t.Fatalf("RunOnStart: %v", err)
	}
	if err := hooks.RunOnEnd(true); err != nil {
		t.Fatalf("RunOnEnd: %v", err)
	}
	if len(started) != 2 || started[0] != "a" || started[1] != "b" {
		t.Fatalf("unexpected onStart order %v", started)
	}
	if len(ended) != 2 || ended[0] != "a" || ended[1] != "b" {
		t.Fatalf("unexpected onEnd order %v", ended)
	}
}

func TestEmptyHooksAreNoOps(t *testing.T) {
	var hooks Hooks
	if err := hooks.RunOnStart(); err != nil {
		t.Fatalf("RunOnStart on zero-value Hooks: %v", err)
	}
	if err := hooks.RunOnEnd(false); err != nil {
		t.Fatalf("RunOnEnd on zero-value Hooks: %v", err)
	}
	if _, matched, err := hooks.RunOnResolve(OnResolveArgs{Path: "x"}); matched || err != nil {
		t.Fatalf("expected no match on zero-value Hooks, got matched=%v err=%v", matched, err)
	}
	if code, err := hooks.RunOnTransform("/x.js", "code", LoaderJS); err != nil || code != "code" {
		t.Fatalf("expected unchanged code on zero-value Hooks, got %q err=%v", code, err)
	}
}
