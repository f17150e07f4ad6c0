// Package learn builds a supervised dataset from a reading matrix and fits a
// logistic regression classifier to it.
//
// The flow is BuildDataset, then a seeded train/test split, then FitScaler on
// the training rows only, then Train and Evaluate. Run wires these steps
// together. Nothing here is safe to share between goroutines once training
// starts except the immutable Model and Scaler.
package learn
