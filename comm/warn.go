// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import "github.com/cpmech/gosl/io"

// warnf prints a one-line yellow warning, the way gofem's solver/domain
// code flags recoverable misconfigurations on rank 0.
func warnf(format string, args ...interface{}) {
	io.Pfyel("WARNING -- "+format+"\n", args...)
}
