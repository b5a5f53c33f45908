package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/agriscan/agriscan-api/internal/model"
)

// ortEnv manages global ONNX Runtime initialization (process-wide
// singleton). Safe under concurrent first access.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT() error {
	ortEnv.once.Do(func() {
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNX runs classification through an ONNX Runtime session. Model metadata
// is read eagerly so the label set is available at startup; the session and
// its tensors are created lazily on the first Classify call, exactly once
// even when concurrent requests race to trigger it. A failed initialization
// is sticky and reported as ErrUnavailable on every call.
type ONNX struct {
	modelPath string
	metadata  model.Metadata

	initOnce sync.Once
	initErr  error

	// runMu serializes Run calls: the input and output tensors are
	// allocated once and reused across inferences.
	runMu        sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewONNX reads the model metadata and prepares a lazily initialized
// classifier for the model at modelPath.
func NewONNX(modelPath, metadataPath string) (*ONNX, error) {
	metaFile, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata model.Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(metadata.Classes) == 0 {
		return nil, fmt.Errorf("metadata %s lists no classes", metadataPath)
	}

	return &ONNX{modelPath: modelPath, metadata: metadata}, nil
}

// Labels returns the ordered class list the output vector is aligned to.
func (o *ONNX) Labels() []string { return o.metadata.Classes }

// Metadata returns the parsed model metadata.
func (o *ONNX) Metadata() model.Metadata { return o.metadata }

func (o *ONNX) initSession() error {
	o.initOnce.Do(func() {
		if err := initORT(); err != nil {
			o.initErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
			return
		}

		inputShape := ort.NewShape(o.metadata.InputShape...)
		outputShape := ort.NewShape(o.metadata.OutputShape...)

		inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
		if err != nil {
			o.initErr = fmt.Errorf("failed to create input tensor: %w", err)
			return
		}

		outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
		if err != nil {
			inputTensor.Destroy()
			o.initErr = fmt.Errorf("failed to create output tensor: %w", err)
			return
		}

		session, err := ort.NewAdvancedSession(o.modelPath,
			[]string{"input"}, []string{"output"},
			[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
			nil)
		if err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			o.initErr = fmt.Errorf("failed to create ONNX session: %w", err)
			return
		}

		o.inputTensor = inputTensor
		o.outputTensor = outputTensor
		o.session = session
	})
	return o.initErr
}

// Classify decodes and preprocesses the image, runs inference, and returns
// a copy of the output probability vector aligned to Labels().
func (o *ONNX) Classify(_ context.Context, imageBytes []byte) ([]float32, error) {
	inputData, err := Preprocess(imageBytes, o.metadata.ImageSize)
	if err != nil {
		return nil, err
	}

	if err := o.initSession(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	o.runMu.Lock()
	defer o.runMu.Unlock()

	copy(o.inputTensor.GetData(), inputData)

	if err := o.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: inference failed: %v", ErrUnavailable, err)
	}

	outputData := o.outputTensor.GetData()
	probs := make([]float32, len(o.metadata.Classes))
	copy(probs, outputData)
	return probs, nil
}

// Close releases the session and tensors if they were ever created.
func (o *ONNX) Close() {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	if o.inputTensor != nil {
		o.inputTensor.Destroy()
		o.inputTensor = nil
	}
	if o.outputTensor != nil {
		o.outputTensor.Destroy()
		o.outputTensor = nil
	}
	if o.session != nil {
		o.session.Destroy()
		o.session = nil
	}
}
