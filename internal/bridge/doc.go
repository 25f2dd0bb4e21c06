// Package bridge brings the foreign scripting runtime online and exposes the
// four operations the factory needs from it: create spec, destroy spec,
// create instance and deserialize instance.
//
// The runtime lives in a companion shared library shipped with the foreign
// installation. Loading happens lazily, the first time a foreign type is
// used, and follows a fixed sequence: discover the installation root, locate
// the library, dlopen it with RTLD_GLOBAL|RTLD_NOW, resolve every entry
// point, then initialize the runtime. Any failure leaves the Loader unloaded
// so a later call starts over from discovery.
//
// A Loader moves through Unloaded, Loaded and Initialized. Once Initialized
// it stays there until process exit: the library handle is never closed and
// the runtime is finalized only by Exit, which the binary calls on its way
// out. The embedded interpreter cannot be restarted within a process, so the
// handle stays open. Nothing in the factory's cleanup path reaches Exit.
//
// Every pointer cast lives in dynlib_cgo.go. The rest of the package works
// with the typed EntryPoints interface.
package bridge
