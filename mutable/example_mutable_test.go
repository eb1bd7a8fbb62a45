package mutable_test

import (
	"fmt"

	"pipelined.dev/patch/mutable"
)

type gain struct {
	mutable.Context
	level float64
}

func (g *gain) setLevel(value float64) mutable.Mutation {
	return g.Context.Mutate(func() {
		g.level = value
	})
}

func Example_mutation() {
	g := &gain{
		Context: mutable.Mutable(),
	}
	fmt.Println(g.level)

	var batch mutable.Mutations
	batch.Put(g.setLevel(0.5))
	fmt.Println(g.level)

	batch.Apply()
	fmt.Println(g.level)

	// Output:
	// 0
	// 0
	// 0.5
}
