// Package serialization stores named parameter trees in SafeTensors format.
//
// It is used to checkpoint optimizer state:
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON tensor entries plus "__metadata__"]
//	  [Tensor data: float64 little-endian, tensors in name order]
//
// Every leaf of every tree becomes one tensor named "<key>.<leaf path>", or
// "<key>" for a tree that is a single leaf. The metadata carries a SHA-256
// checksum of the data section under "sha256".
//
// Trees are read back against templates with the expected structure:
//
//	if err := serialization.WriteFile("momo.safetensors", optimizer.StateDict(), nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	stateDict, _, err := serialization.ReadFile("momo.safetensors", optimizer.StateDict())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	optimizer.LoadStateDict(stateDict)
package serialization
