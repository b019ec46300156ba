package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a fully connected, feed forward neural network on a
// Gorgonia graph. An mlp may have more than one input node, in which
// case the first layer projects each input with its own weight matrix
// and sums the projections. This is how action value networks consume
// a state batch and an action batch at once.
type mlp struct {
	g       *G.ExprGraph
	inLayer *fanInLayer
	layers  []Layer

	inputs    []*G.Node
	inputDims []int

	numOutputs int
	numInputs  int
	batchSize  int

	// Architecture data needed for cloning and gobbing. These slices
	// include the appended final output layer.
	hiddenSizes []int
	biases      []bool
	activations []*Activation
	prefix      string

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron mapping
// a batch of feature vectors to a batch of output vectors. The graph
// parameter g is populated with the MLP.
//
// The MLP has a number of layers equal to len(hiddenSizes) + 1. A
// final linear layer with a bias unit and no activation is always
// added so that given any input, the prediction will have outputs
// columns. For index i, hiddenSizes[i] is the number of units in
// hidden layer i, biases[i] is true if hidden layer i has a bias
// unit, and activations[i] is the activation function of hidden layer
// i. The parameter init determines the weight initialization scheme.
func NewMLP(features, batch, outputs int, g *G.ExprGraph, hiddenSizes []int,
	biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	return newMLP(g, []*G.Node{input}, []int{features}, outputs, hiddenSizes,
		biases, activations, init, "")
}

// NewActionValueMLP creates and returns a new MLP mapping a batch of
// state vectors and a batch of action vectors to a batch of scalar
// action value estimates. The first layer projects the state and
// action batches separately and sums the projections. The remaining
// parameters are interpreted as in NewMLP.
func NewActionValueMLP(features, actionDims, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	state := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("state"),
		G.WithInit(G.Zeroes()),
	)
	action := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, actionDims),
		G.WithName("action"),
		G.WithInit(G.Zeroes()),
	)

	return newMLP(g, []*G.Node{state, action}, []int{features, actionDims},
		1, hiddenSizes, biases, activations, init, "")
}

// NewMLPFromInputs creates and returns a new MLP whose input nodes
// already exist on the graph g. Input nodes may be the predictions of
// other networks on the same graph, which is how an action value
// network is evaluated on the actions a policy network proposes. The
// inputDims parameter lists the number of feature columns of each
// input node, and prefix disambiguates the names of the new network's
// weights from other networks sharing the graph.
func NewMLPFromInputs(inputs []*G.Node, inputDims []int, outputs int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (NeuralNet, error) {
	if len(inputs) != len(inputDims) {
		return nil, fmt.Errorf("newmlpfrominputs: invalid number of input "+
			"dims \n\twant(%v)\n\thave(%v)", len(inputs), len(inputDims))
	}
	for _, input := range inputs {
		if input.Graph() != g {
			return nil, fmt.Errorf("newmlpfrominputs: not all inputs are " +
				"on the target graph")
		}
	}

	return newMLP(g, inputs, inputDims, outputs, hiddenSizes, biases,
		activations, init, prefix)
}

// newMLP constructs an mlp from existing input nodes, appending the
// final linear output layer.
func newMLP(g *G.ExprGraph, inputs []*G.Node, inputDims []int, outputs int,
	hiddenSizes []int, biases []bool, activations []*Activation,
	init G.InitWFn, prefix string) (NeuralNet, error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newmlp: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias flag per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newmlp: invalid number of biases\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	if len(inputs) != len(inputDims) {
		msg := "newmlp: invalid number of input dims\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(inputs), len(inputDims))
	}

	batch := inputs[0].Shape()[0]
	features := 0
	for i, input := range inputs {
		if !input.IsMatrix() {
			return nil, fmt.Errorf("newmlp: input %v must be a matrix", i)
		}
		if input.Shape()[0] != batch {
			return nil, fmt.Errorf("newmlp: input %v has batch size %v, "+
				"expected %v", i, input.Shape()[0], batch)
		}
		features += inputDims[i]
	}

	// Add a final linear layer so that outputs values are predicted
	// per input row. Copy the architecture slices so that appending
	// does not alias the caller's slices.
	sizes := make([]int, len(hiddenSizes), len(hiddenSizes)+1)
	copy(sizes, hiddenSizes)
	sizes = append(sizes, outputs)

	withBias := make([]bool, len(biases), len(biases)+1)
	copy(withBias, biases)
	withBias = append(withBias, true)

	acts := make([]*Activation, len(activations), len(activations)+1)
	copy(acts, activations)
	acts = append(acts, Identity())

	// The first layer consumes the input nodes directly, one weight
	// matrix per input. The remaining layers are ordinary fully
	// connected layers.
	inLayer := newFanInLayer(g, inputDims, sizes[0], withBias[0], acts[0],
		init, prefix)
	layers := addfcLayers(g, sizes[1:], withBias[1:], acts[1:], init,
		sizes[0], 1, prefix)

	network := mlp{
		g:           g,
		inLayer:     inLayer,
		layers:      layers,
		inputs:      inputs,
		inputDims:   inputDims,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: sizes,
		biases:      withBias,
		activations: acts,
		prefix:      prefix,
	}
	if err := network.fwd(inputs); err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}

	return &network, nil
}

// Graph returns the computational graph of the mlp
func (m *mlp) Graph() *G.ExprGraph {
	return m.g
}

// Clone clones an mlp to a new computational graph
func (m *mlp) Clone() (NeuralNet, error) {
	return m.CloneWithBatch(m.batchSize)
}

// CloneWithBatch clones an mlp to a new computational graph with a new
// input batch size. The clone starts with the same weight values as
// the original network.
func (m *mlp) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()

	// Recreate the input nodes with the new batch size
	inputs := make([]*G.Node, len(m.inputs))
	for i := range m.inputs {
		inputs[i] = G.NewMatrix(
			graph,
			tensor.Float64,
			G.WithShape(batchSize, m.inputDims[i]),
			G.WithName(m.inputs[i].Name()),
			G.WithInit(G.Zeroes()),
		)
	}

	// Copy the layers, including weight values
	inLayer := m.inLayer.CloneTo(graph)
	layers := make([]Layer, len(m.layers))
	for i := range m.layers {
		layers[i] = m.layers[i].CloneTo(graph)
	}

	network := mlp{
		g:           graph,
		inLayer:     inLayer,
		layers:      layers,
		inputs:      inputs,
		inputDims:   m.inputDims,
		numOutputs:  m.numOutputs,
		numInputs:   m.numInputs,
		batchSize:   batchSize,
		hiddenSizes: m.hiddenSizes,
		biases:      m.biases,
		activations: m.activations,
		prefix:      m.prefix,
	}
	if err := network.fwd(inputs); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute forward "+
			"pass: %v", err)
	}

	return &network, nil
}

// BatchSize returns the number of rows of the mlp's inputs
func (m *mlp) BatchSize() int {
	return m.batchSize
}

// Features returns the total number of input features of the mlp
func (m *mlp) Features() int {
	return m.numInputs
}

// Outputs returns the number of outputs predicted per input row
func (m *mlp) Outputs() int {
	return m.numOutputs
}

// Inputs returns the input nodes of the mlp
func (m *mlp) Inputs() []*G.Node {
	return m.inputs
}

// SetInput sets the value of the mlp's single input node before
// running the forward pass
func (m *mlp) SetInput(input []float64) error {
	if len(m.inputs) != 1 {
		return fmt.Errorf("setinput: network has %v input nodes, use "+
			"SetInputs", len(m.inputs))
	}
	return m.SetInputs(input)
}

// SetInputs sets the value of each of the mlp's input nodes, in
// construction order, before running the forward pass
func (m *mlp) SetInputs(inputs ...[]float64) error {
	if len(inputs) != len(m.inputs) {
		return fmt.Errorf("setinputs: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", len(m.inputs), len(inputs))
	}

	for i, input := range inputs {
		if len(input) != m.inputDims[i]*m.batchSize {
			return fmt.Errorf("setinputs: invalid size for input %v"+
				"\n\twant(%v)\n\thave(%v)", i, m.inputDims[i]*m.batchSize,
				len(input))
		}
		inputTensor := tensor.New(
			tensor.WithBacking(input),
			tensor.WithShape(m.inputs[i].Shape()...),
		)
		if err := G.Let(m.inputs[i], inputTensor); err != nil {
			return fmt.Errorf("setinputs: could not set input %v: %v", i, err)
		}
	}
	return nil
}

// Set sets the weights of an mlp to be equal to the weights of another
// NeuralNet with the same architecture
func (m *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := m.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: source and destination architectures "+
			"differ\n\twant(%v learnables)\n\thave(%v)", len(nodes),
			len(sourceNodes))
	}
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Polyak sets the weights of an mlp to be a Polyak average between its
// existing weights and the weights of another NeuralNet with the same
// architecture
func (m *mlp) Polyak(source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := m.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("polyak: source and destination architectures "+
			"differ\n\twant(%v learnables)\n\thave(%v)", len(nodes),
			len(sourceNodes))
	}
	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		var newWeights *tensor.Dense
		newWeights, err = weights.Add(sourceWeights)
		if err != nil {
			return err
		}

		if err := G.Let(nodes[i], newWeights); err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes of the mlp
func (m *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if m.learnables == nil {
		m.learnables = m.computeLearnables()
	}
	return m.learnables
}

// computeLearnables computes all the learnables for the network
func (m *mlp) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*(len(m.layers)+1))

	learnables = append(learnables, m.inLayer.Learnables()...)
	for i := range m.layers {
		learnables = append(learnables, m.layers[i].Weights())
		if bias := m.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients
func (m *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if m.model == nil {
		m.model = m.computeModel()
	}
	return m.model
}

// computeModel computes the model for the network
func (m *mlp) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(m.layers))
	for _, node := range m.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the mlp on the input nodes
func (m *mlp) fwd(inputs []*G.Node) error {
	for i, input := range inputs {
		inputShape := input.Shape()[len(input.Shape())-1]
		if inputShape != m.inputDims[i] {
			return fmt.Errorf("fwd: invalid shape for input %v to neural "+
				"net: \n\twant(%v) \n\thave(%v)", i, m.inputDims[i],
				inputShape)
		}
	}

	pred, err := m.inLayer.fwd(inputs)
	if err != nil {
		return fmt.Errorf("fwd: could not compute forward pass of input "+
			"layer: %v", err)
	}
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return fmt.Errorf(msg, i+1, err)
		}
	}

	m.prediction = pred

	G.Read(m.prediction, &m.predVal)

	return nil
}

// Output returns the value of the mlp's prediction after the last VM
// run
func (m *mlp) Output() G.Value {
	return m.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the mlp
func (m *mlp) Prediction() *G.Node {
	return m.prediction
}
