// Package config holds the training and quantization parameters.
//
// A Config can be built in code from Default or Supervised, or loaded from a
// YAML (.yaml, .yml) or JSON file with Load. The subset of fields that
// affects how a trained model is interpreted is persisted with the model
// through WriteTo and ReadFrom.
package config
