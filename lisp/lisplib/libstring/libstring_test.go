// Copyright © 2018 The ELPS authors

package libstring_test

import (
	"testing"

	"github.com/luthersystems/sxp/sxptest"
)

func TestPackage(t *testing.T) {
	r := &sxptest.Runner{}
	r.RunTestFile(t, "libstring_test.sxp")
}
