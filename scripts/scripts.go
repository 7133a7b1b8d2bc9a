// Package scripts embeds the built-in Risor batch scripts. They run when the
// script named on the command line does not exist on disk, e.g.
// "smalisig script dump Foo.java".
package scripts

import "embed"

//go:embed *.risor
var FS embed.FS
