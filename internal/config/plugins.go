package config

// Hooks is the compiled form of every registered Plugin's Setup call: one
// ordered slice per hook kind, ready to walk without re-invoking Setup.
// Built once per build (spec §6 "Plugin order is registration order").
type Hooks struct {
	OnResolve   []resolveHook
	OnLoad      []loadHook
	OnTransform []transformHook
	OnStart     []OnStartCallback
	OnEnd       []OnEndCallback
}

type resolveHook struct {
	Filter   Filter
	Callback OnResolveCallback
}

type loadHook struct {
	Filter   Filter
	Callback OnLoadCallback
}

type transformHook struct {
	Filter   Filter
	Callback OnTransformCallback
}

// CompileHooks runs every plugin's Setup exactly once, collecting whatever
// it registers. Plugins are free to call none, some, or all of the
// PluginBuild methods; order across plugins is preserved within each hook
// kind, matching registration order as spec §6 requires.
func CompileHooks(plugins []Plugin) Hooks {
	var h Hooks
	for _, p := range plugins {
		if p.Setup == nil {
			continue
		}
		p.Setup(PluginBuild{
			OnResolve: func(f Filter, cb OnResolveCallback) {
				h.OnResolve = append(h.OnResolve, resolveHook{f, cb})
			},
			OnLoad: func(f Filter, cb OnLoadCallback) {
				h.OnLoad = append(h.OnLoad, loadHook{f, cb})
			},
			OnTransform: func(f Filter, cb OnTransformCallback) {
				h.OnTransform = append(h.OnTransform, transformHook{f, cb})
			},
			OnStart: func(cb OnStartCallback) {
				h.OnStart = append(h.OnStart, cb)
			},
			OnEnd: func(cb OnEndCallback) {
				h.OnEnd = append(h.OnEnd, cb)
			},
		})
	}
	return h
}

// RunOnResolve returns the first non-empty result from a hook whose filter
// matches path, per spec §6 "first non-null return wins for onResolve".
func (h Hooks) RunOnResolve(args OnResolveArgs) (OnResolveResult, bool, error) {
	for _, hook := range h.OnResolve {
		if !hook.Filter.Matches(args.Path) {
			continue
		}
		res, err := hook.Callback(args)
		if err != nil {
			return OnResolveResult{}, false, err
		}
		if res.Path != "" || res.External {
			return res, true, nil
		}
	}
	return OnResolveResult{}, false, nil
}

// RunOnLoad returns the first non-empty result from a hook whose filter
// matches path, per spec §6 "first non-null return wins for onLoad".
func (h Hooks) RunOnLoad(args OnLoadArgs) (OnLoadResult, bool, error) {
	for _, hook := range h.OnLoad {
		if !hook.Filter.Matches(args.Path) {
			continue
		}
		res, err := hook.Callback(args)
		if err != nil {
			return OnLoadResult{}, false, err
		}
		if res.Contents != nil {
			return res, true, nil
		}
	}
	return OnLoadResult{}, false, nil
}

// RunOnTransform chains every matching hook's output into the next one's
// input, per spec §6 "onTransform callbacks chain".
func (h Hooks) RunOnTransform(path string, code string, loader Loader) (string, error) {
	for _, hook := range h.OnTransform {
		if !hook.Filter.Matches(path) {
			continue
		}
		res, err := hook.Callback(OnTransformArgs{Path: path, Code: code, Loader: loader})
		if err != nil {
			return code, err
		}
		code = res.Code
	}
	return code, nil
}

func (h Hooks) RunOnStart() error {
	for _, cb := range h.OnStart {
		if err := cb(); err != nil {
			return err
		}
	}
	return nil
}

func (h Hooks) RunOnEnd(hadErrors bool) error {
	for _, cb := range h.OnEnd {
		if err := cb(hadErrors); err != nil {
			return err
		}
	}
	return nil
}
