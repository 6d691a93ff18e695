// Copyright © 2018 The ELPS authors

package libmath_test

import (
	"testing"

	"github.com/luthersystems/sxp/sxptest"
)

func TestPackage(t *testing.T) {
	r := &sxptest.Runner{}
	r.RunTestFile(t, "libmath_test.sxp")
}
