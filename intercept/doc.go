// Package intercept decorates a bundler's input file system so that files
// which exist only in the compiler host's overlay are served from the host.
//
// Stat and ReadFile, in both callback and synchronous forms, first ask the
// host whether the path exists only virtually. If so, the host answers and
// the wrapped file system is never touched; otherwise the call is delegated
// unchanged. Readdir, ReadJSON and Readlink always delegate.
//
// Purge is the channel through which the bundler's cache invalidation
// reaches the host's changed-file set:
//
//	fsys, err := intercept.New(input, h)
//	if err != nil {
//	    return err
//	}
//	fsys.Purge("/work/project/src/app.ts")
//	changed := h.ChangedFilePaths()
package intercept
