// Package network implements neural network function approximators
// on Gorgonia computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network function approximator. A
// NeuralNet adds its forward pass to a computational graph at
// construction time. To evaluate the network, set the input with
// SetInput or SetInputs and run a VM on the network's graph; the
// result is then available through Output.
//
// Networks on separate graphs can synchronize their weights with Set
// (hard copy) and Polyak (exponential moving average), provided the
// two networks share the same architecture.
type NeuralNet interface {
	// Graph returns the computational graph the network was built on
	Graph() *G.ExprGraph

	// Clone clones the network to a new computational graph, copying
	// the current weight values
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network to a new computational graph
	// with a new input batch size, copying the current weight values
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of rows of the network's inputs
	BatchSize() int

	// Features returns the total number of input features, summed
	// over all input nodes
	Features() int

	// Outputs returns the number of outputs predicted per input row
	Outputs() int

	// Inputs returns the input nodes of the network
	Inputs() []*G.Node

	// SetInput sets the value of the network's single input node.
	// SetInput errors if the network has more than one input node.
	SetInput([]float64) error

	// SetInputs sets the value of each of the network's input nodes,
	// in construction order. Data is in row major order.
	SetInputs(...[]float64) error

	// Set sets the weights of the network to those of another network
	Set(NeuralNet) error

	// Polyak updates the weights of the network to be a Polyak
	// average between its current weights and those of another
	// network: w ← τ·other + (1−τ)·w
	Polyak(NeuralNet, float64) error

	// Learnables returns the nodes whose values are adjusted during
	// learning
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the value of the network's prediction after the
	// last VM run
	Output() G.Value

	// Prediction returns the node of the computational graph that
	// stores the network's prediction
	Prediction() *G.Node
}
