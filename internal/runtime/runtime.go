// Package runtime holds the JavaScript preamble the Emitter injects once
// per output chunk: a module registry keyed by the integer module ids
// component D assigns, plus the interop helpers ESM/CJS-flavored rewritten
// import/export statements call into. Grounded on esbuild's own
// internal/runtime helpers (__export/__toESM/__commonJS), redesigned
// around this bundler's ModuleID arena instead of closures keyed by name.
//
// The registry lives on globalThis so that multiple chunk files loaded as
// separate <script> tags, CommonJS requires, or dynamic imports all share
// one module cache and one set of pending factories, however many of the
// chunks were actually split out.
package runtime

// Code is emitted verbatim at the top of every chunk. Re-declaring the
// helper functions in each chunk is harmless (function declarations are
// idempotent); only the registry object itself needs the "create once"
// guard.
const Code = `
var __gb = globalThis.__gb || (globalThis.__gb = { modules: {}, cache: {}, chunks: {} });

function __esm(id, factory) {
  __gb.modules[id] = factory;
}

function __require(id) {
  var cached = __gb.cache[id];
  if (cached) return cached.exports;
  var mod = { exports: {} };
  __gb.cache[id] = mod;
  var factory = __gb.modules[id];
  if (!factory) throw new Error("gobundle: unknown module id " + id);
  factory(mod.exports, mod, __require);
  return mod.exports;
}

function __export(target, all) {
  for (var name in all) Object.defineProperty(target, name, { get: all[name], enumerable: true });
}

function __exportStar(target, mod) {
  if (mod && typeof mod === "object") {
    for (var key in mod) {
      if (key !== "default" && !Object.prototype.hasOwnProperty.call(target, key)) {
        Object.defineProperty(target, key, {
          get: (function (k) { return function () { return mod[k]; }; })(key),
          enumerable: true,
        });
      }
    }
  }
  return target;
}

function __toESM(mod) {
  if (mod && mod.__esModule) return mod;
  var result = {};
  if (mod != null) {
    for (var key in mod) result[key] = mod[key];
  }
  result.default = mod;
  return result;
}

var __requireExternal =
  typeof require === "function"
    ? require
    : function (specifier) {
        throw new Error("gobundle: cannot load external module " + specifier + " in this environment");
      };

// __loadChunk fetches a sibling chunk file (a <script> tag in a browser, a
// CommonJS require on a server, or a dynamic import as a last resort) and
// resolves to the exports of targetId once that chunk has registered its
// modules. Chunk paths are resolved against the current page/script
// location rather than a configurable public-path setting; document that
// simplification wherever it matters to a deployment.
function __loadChunk(name, targetId) {
  if (__gb.chunks[name]) return Promise.resolve(__require(targetId));
  if (typeof document !== "undefined") {
    return new Promise(function (resolve, reject) {
      var script = document.createElement("script");
      script.src = new URL(name, self.location.href).toString();
      script.onload = function () {
        __gb.chunks[name] = true;
        resolve(__require(targetId));
      };
      script.onerror = function () {
        reject(new Error("gobundle: failed to load chunk " + name));
      };
      document.head.appendChild(script);
    });
  }
  if (typeof require === "function") {
    require(require("path").join(__dirname, name));
    __gb.chunks[name] = true;
    return Promise.resolve(__require(targetId));
  }
  return import(name).then(function () {
    __gb.chunks[name] = true;
    return __require(targetId);
  });
}
`
