package probit_test

import (
	"math"
	"testing"

	"github.com/bmucsanyi/probit"
)

func TestParseLinkFunction(t *testing.T) {
	for _, name := range []string{"probit", "logit"} {
		link, err := probit.ParseLinkFunction(name)
		if err != nil {
			t.Error(err)
		}
		if link.String() != name {
			t.Errorf("expected %v to round-trip but got %v", name, link)
		}
	}

	if _, err := probit.ParseLinkFunction("cloglog"); err == nil {
		t.Error("accepted an invalid link function")
	}
}

func TestLinkFunctionScale(t *testing.T) {
	scale, err := probit.Probit.Scale()
	if err != nil {
		t.Error(err)
	}
	if scale != 1.0 {
		t.Errorf("expected probit scale 1 but got %v", scale)
	}

	scale, err = probit.Logit.Scale()
	if err != nil {
		t.Error(err)
	}
	if scale != math.Pi/8 {
		t.Errorf("expected logit scale pi/8 but got %v", scale)
	}

	if _, err := probit.LinkFunction(42).Scale(); err == nil {
		t.Error("accepted an invalid link function")
	}
}

func TestParseOutputFunction(t *testing.T) {
	for _, name := range []string{"normcdf", "sigmoid", "sigmoid_product"} {
		output, err := probit.ParseOutputFunction(name)
		if err != nil {
			t.Error(err)
		}
		if output.String() != name {
			t.Errorf("expected %v to round-trip but got %v", name, output)
		}
	}

	if _, err := probit.ParseOutputFunction("tanh"); err == nil {
		t.Error("accepted an invalid output function")
	}
}
