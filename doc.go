/*
Package patch allows to build and edit modular synthesis graphs while they
are playing.

# Concept

A patch is a directed acyclic graph of nodes. Every node is an instance of
a class, which defines its channels:

    Input - a singular slot, accepts at most one edge;
    Joint input - accepts any number of distinct edges, mixed together;
    Output - can feed any number of consumers.

Nodes are owned by a Container. Only nodes of the same container can be
connected. Edges which would close a cycle are rejected.

# Contexts

Once prepared, a node is replicated into contexts, for example one per
sounding voice. Every context has its own real-time modules, which belong
to the engine package runtime. Any change of topology is fanned out to
all contexts of the node in ascending handle order within a single
transaction:

    c := patch.NewContainer("song", patch.WithEngine(engine.New()))
    c.Prepare()
    c.CreateContext(1)
    c.CreateContext(2)
    // two connect jobs are committed in one transaction.
    err := mix.SetInputByName("mix", osc, "out")

Reset dismisses all contexts and blocks until the engine acknowledged it.

# History

Edits made through node methods record their inverse in the container
history. Groups of edits can be bracketed:

    s := c.History().Stack()
    s.Open("move")
    n.SetPos(1, 1)
    n.SetPos(2, 2)
    s.Close()
    // restores position before the group.
    err := c.History().Undo()

Package level functions SetInput, UnsetInput, ClearInputs and ClearOutputs
change the graph without recording history.
*/
package patch
