package cmdtest

import (
	"testing"
)

func TestMain(m *testing.M) {
	Main(m)
}

func TestSkypick(t *testing.T) {
	Run(t, "testdata/skypick")
}
