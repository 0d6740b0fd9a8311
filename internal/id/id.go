package id

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator produces time-ordered int64 IDs using the Snowflake algorithm.
// It is constructed once at composition time and injected wherever IDs are
// assigned, rather than held as process-wide state.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a Generator for the given node ID (0-1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// Next returns a new unique ID. IDs are strictly increasing per generator,
// which is what makes message IDs usable as a creation-order sequence.
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}
