package store

import "time"

type File struct {
	ID          int64
	Path        string
	Package     string
	Hash        string
	LineCount   int
	HasErrors   bool
	LastIndexed time.Time
}

// Method is one indexed method. Owner is the dotted binary class name
// (com.example.Outer$Inner), Params and ReturnType are Java spellings.
type Method struct {
	ID          int64
	FileID      int64
	Owner       string
	Name        string
	Descriptor  string
	Params      []string
	ReturnType  string
	Constructor bool
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
}
