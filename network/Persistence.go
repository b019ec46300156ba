package network

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Save serializes a NeuralNet's architecture and weights to the file
// at filename as an opaque gob blob.
func Save(filename string, net NeuralNet) error {
	m, ok := net.(*mlp)
	if !ok {
		return fmt.Errorf("save: cannot serialize network of type %T", net)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("save: could not encode network: %v", err)
	}
	return nil
}

// Load deserializes a NeuralNet previously written by Save. The
// returned network is built on a fresh computational graph.
func Load(filename string) (NeuralNet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not open file: %v", err)
	}
	defer file.Close()

	m := new(mlp)
	dec := gob.NewDecoder(file)
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("load: could not decode network: %v", err)
	}
	return m, nil
}

// GobEncode implements the gob.GobEncoder interface
func (m *mlp) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(m.inputDims); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode input dims")
	}

	if err := enc.Encode(m.batchSize); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch size")
	}

	if err := enc.Encode(m.numOutputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of outputs")
	}

	if err := enc.Encode(m.hiddenSizes); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes")
	}

	if err := enc.Encode(m.biases); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases")
	}

	if err := enc.Encode(m.activations); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations")
	}

	if err := enc.Encode(m.prefix); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode prefix")
	}

	// Store the weight values of each learnable node
	for i, node := range m.Learnables() {
		weights, ok := node.Value().(*tensor.Dense)
		if !ok {
			return nil, fmt.Errorf("gobencode: learnable %v holds no dense "+
				"tensor", i)
		}
		if err := enc.Encode(weights); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode learnable "+
				"%v: %v", i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (m *mlp) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var inputDims []int
	if err := dec.Decode(&inputDims); err != nil {
		return fmt.Errorf("gobdecode: could not decode input dims")
	}

	var batchSize int
	if err := dec.Decode(&batchSize); err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size")
	}

	var numOutputs int
	if err := dec.Decode(&numOutputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode number of outputs")
	}

	var hiddenSizes []int
	if err := dec.Decode(&hiddenSizes); err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes")
	}

	var biases []bool
	if err := dec.Decode(&biases); err != nil {
		return fmt.Errorf("gobdecode: could not decode biases")
	}

	var activations []*Activation
	if err := dec.Decode(&activations); err != nil {
		return fmt.Errorf("gobdecode: could not decode activations")
	}

	var prefix string
	if err := dec.Decode(&prefix); err != nil {
		return fmt.Errorf("gobdecode: could not decode prefix")
	}

	// The stored architecture includes the appended final output
	// layer; drop it before reconstructing, since newMLP re-appends it
	hiddenSizes = hiddenSizes[:len(hiddenSizes)-1]
	biases = biases[:len(biases)-1]
	activations = activations[:len(activations)-1]

	// Rebuild the network on a fresh graph
	g := G.NewGraph()
	inputs := make([]*G.Node, len(inputDims))
	for i := range inputDims {
		inputs[i] = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(batchSize, inputDims[i]),
			G.WithName(fmt.Sprintf("input%d", i)),
			G.WithInit(G.Zeroes()),
		)
	}

	newNet, err := newMLP(g, inputs, inputDims, numOutputs, hiddenSizes,
		biases, activations, G.Zeroes(), prefix)
	if err != nil {
		return fmt.Errorf("gobdecode: could not reconstruct network: %v", err)
	}
	newMLPNet := newNet.(*mlp)

	// Restore the stored weight values
	for i, node := range newMLPNet.Learnables() {
		weights := new(tensor.Dense)
		if err := dec.Decode(weights); err != nil {
			return fmt.Errorf("gobdecode: could not decode learnable %v: %v",
				i, err)
		}
		if err := G.Let(node, weights); err != nil {
			return fmt.Errorf("gobdecode: could not restore learnable %v: %v",
				i, err)
		}
	}

	*m = *newMLPNet
	return nil
}
