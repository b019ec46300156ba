package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer implements a single layer of a neural network
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) Layer
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() != nil {
		x = G.Must(G.Mul(x, f.Weights()))
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))
	}
	if f.Activation() == nil || f.Activation().IsIdentity() {
		return x, nil
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = f.Weights().CloneTo(g)
	}
	if f.Bias() != nil {
		newBias = f.Bias().CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// addfcLayers creates the fully connected layers of an MLP on the
// graph g. For layer i, hiddenSizes[i] is the number of units,
// biases[i] determines whether the layer has a bias unit, and
// activations[i] is the layer's activation. Layer names are numbered
// starting at first, and the prefix parameter disambiguates node names
// when multiple networks share a graph.
func addfcLayers(g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features, first int,
	prefix string) []Layer {
	layers := make([]Layer, len(hiddenSizes))

	inputs := features
	for i := range hiddenSizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(inputs, hiddenSizes[i]),
			G.WithName(fmt.Sprintf("%vL%dW", prefix, first+i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, hiddenSizes[i]),
				G.WithName(fmt.Sprintf("%vL%dB", prefix, first+i)),
				G.WithInit(init),
			)
		}

		layers[i] = &fcLayer{
			weights: weights,
			bias:    bias,
			act:     activations[i],
		}
		inputs = hiddenSizes[i]
	}

	return layers
}

// fanInLayer implements the input layer of a fully connected network.
// Each input node is projected by its own weight matrix and the
// projections are summed before the bias and activation are applied.
// For several inputs this computes the same linear map a single weight
// matrix would compute on the feature-wise concatenation of the
// inputs, while keeping the graph differentiable with respect to
// inputs that are themselves predictions of other networks.
type fanInLayer struct {
	weights []*G.Node
	bias    *G.Node
	act     *Activation
}

// newFanInLayer creates the input layer of an MLP on the graph g,
// projecting inputs with feature dimensions inputDims to units columns
func newFanInLayer(g *G.ExprGraph, inputDims []int, units int, bias bool,
	act *Activation, init G.InitWFn, prefix string) *fanInLayer {
	weights := make([]*G.Node, len(inputDims))
	for i, dims := range inputDims {
		weights[i] = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(dims, units),
			G.WithName(fmt.Sprintf("%vL0W%d", prefix, i)),
			G.WithInit(init),
		)
	}

	var b *G.Node
	if bias {
		b = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, units),
			G.WithName(fmt.Sprintf("%vL0B", prefix)),
			G.WithInit(init),
		)
	}

	return &fanInLayer{
		weights: weights,
		bias:    b,
		act:     act,
	}
}

// fwd adds the forward pass of the fanInLayer to the computational
// graph
func (f *fanInLayer) fwd(xs []*G.Node) (*G.Node, error) {
	if len(xs) != len(f.weights) {
		return nil, fmt.Errorf("fwd: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", len(f.weights), len(xs))
	}

	out := G.Must(G.Mul(xs[0], f.weights[0]))
	for i := 1; i < len(xs); i++ {
		out = G.Must(G.Add(out, G.Must(G.Mul(xs[i], f.weights[i]))))
	}
	if f.bias != nil {
		out = G.Must(G.BroadcastAdd(out, f.bias, nil, []byte{0}))
	}
	if f.act == nil || f.act.IsIdentity() {
		return out, nil
	}
	return f.act.fwd(out)
}

// CloneTo clones a fanInLayer to a new computational graph
func (f *fanInLayer) CloneTo(g *G.ExprGraph) *fanInLayer {
	weights := make([]*G.Node, len(f.weights))
	for i := range f.weights {
		weights[i] = f.weights[i].CloneTo(g)
	}

	var bias *G.Node
	if f.bias != nil {
		bias = f.bias.CloneTo(g)
	}

	return &fanInLayer{
		weights: weights,
		bias:    bias,
		act:     f.act,
	}
}

// Learnables returns the learnable nodes of the fanInLayer
func (f *fanInLayer) Learnables() G.Nodes {
	learnables := make([]*G.Node, len(f.weights), len(f.weights)+1)
	copy(learnables, f.weights)
	if f.bias != nil {
		learnables = append(learnables, f.bias)
	}
	return G.Nodes(learnables)
}
