package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/jward/smalisig"
	"github.com/jward/smalisig/internal/javasrc"
)

// copyToClipboard is swapped by tests; the real clipboard needs a display.
var copyToClipboard = clipboard.WriteAll

func encoder() smalisig.Encoder {
	return smalisig.Encoder{RawDollar: flagRawDollar}
}

// --- at ---

var flagCopy bool

var atCmd = &cobra.Command{
	Use:   "at <file> <line> <col>",
	Short: "Print the descriptor of the method enclosing a position",
	Long:  "Parses the file and prints the Smali reference of the innermost method or constructor containing the 0-based position. No index is needed.",
	Args:  cobra.ExactArgs(3),
	RunE:  runAt,
}

func init() {
	atCmd.Flags().BoolVar(&flagCopy, "copy", false, "copy the descriptor to the clipboard")
}

func runAt(cmd *cobra.Command, args []string) error {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("at", err)
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("at", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("at", err)
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return outputError("at", fmt.Errorf("reading %s: %w", file, err))
	}
	f, err := javasrc.Parse(context.Background(), src)
	if err != nil {
		return outputError("at", err)
	}
	if f.HasErrors {
		logger.Warn("syntax errors, result may be incomplete", "file", file)
	}

	m := f.MethodAt(line, col)
	if m == nil {
		if flagCopy {
			fmt.Fprintf(stderr, "No method at %s:%d:%d\n", file, line, col)
		}
		return outputResult(CLIResult{Command: "at", Results: nil})
	}

	desc, err := encoder().EncodeMethod(m.Descriptor)
	if err != nil {
		return outputError("at", err)
	}

	if flagCopy {
		if err := copyToClipboard(desc); err != nil {
			return outputError("at", fmt.Errorf("copying to clipboard: %w", err))
		}
		fmt.Fprintf(stderr, "Copied %s\n", desc)
	}

	one := 1
	return outputResult(CLIResult{
		Command:    "at",
		Results:    javaMethodToCLI(m, desc, file),
		TotalCount: &one,
	})
}

func javaMethodToCLI(m *javasrc.Method, desc, file string) CLIMethod {
	return CLIMethod{
		Descriptor:  desc,
		Owner:       m.Descriptor.OwnerClass,
		Name:        m.Descriptor.MethodName,
		Params:      typeStrings(m.Descriptor.Parameters),
		Return:      m.Descriptor.ReturnType.String(),
		Constructor: m.Constructor,
		File:        file,
		StartLine:   m.StartLine,
		StartCol:    m.StartCol,
		EndLine:     m.EndLine,
		EndCol:      m.EndCol,
	}
}

func typeStrings(ts []smalisig.TypeRef) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

// --- encode ---

var (
	flagOwner       string
	flagName        string
	flagParams      []string
	flagReturn      string
	flagConstructor bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode [type]",
	Short: "Encode a Java type or method signature",
	Long: `With a positional argument, encodes one Java type spelling (e.g. "int[]").
Otherwise builds a method reference from --owner, --name, --param and --return.`,
	Example: `  smalisig encode 'java.util.Map$Entry[]'
  smalisig encode --owner com.example.Foo --name bar --param int --param String... --return long`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVar(&flagOwner, "owner", smalisig.UnknownOwner, "declaring class, dotted binary name")
	encodeCmd.Flags().StringVar(&flagName, "name", "", "method name")
	encodeCmd.Flags().StringArrayVar(&flagParams, "param", nil, "parameter type, repeatable, in order")
	encodeCmd.Flags().StringVar(&flagReturn, "return", "void", "return type")
	encodeCmd.Flags().BoolVar(&flagConstructor, "constructor", false, "encode a constructor (<init>, void return)")
}

func runEncode(cmd *cobra.Command, args []string) error {
	enc := encoder()

	if len(args) == 1 {
		t, err := smalisig.ParseJavaType(args[0])
		if err != nil {
			return outputError("encode", err)
		}
		s, err := enc.EncodeType(t)
		if err != nil {
			return outputError("encode", err)
		}
		return outputResult(CLIResult{Command: "encode", Results: s})
	}

	md, err := descriptorFromFlags()
	if err != nil {
		return outputError("encode", err)
	}
	s, err := enc.EncodeMethod(md)
	if err != nil {
		return outputError("encode", err)
	}
	return outputResult(CLIResult{Command: "encode", Results: s})
}

func descriptorFromFlags() (smalisig.MethodDescriptor, error) {
	md := smalisig.MethodDescriptor{
		OwnerClass: flagOwner,
		MethodName: flagName,
		Parameters: make([]smalisig.TypeRef, 0, len(flagParams)),
	}
	if md.OwnerClass == "" {
		md.OwnerClass = smalisig.UnknownOwner
	}
	for i, p := range flagParams {
		t, err := smalisig.ParseJavaType(p)
		if err != nil {
			return md, fmt.Errorf("--param #%d: %w", i+1, err)
		}
		md.Parameters = append(md.Parameters, t)
	}
	ret, err := smalisig.ParseJavaType(flagReturn)
	if err != nil {
		return md, fmt.Errorf("--return: %w", err)
	}
	md.ReturnType = ret

	if flagConstructor {
		md.MethodName = smalisig.ConstructorName
		md.ReturnType = smalisig.Primitive(smalisig.Void)
	}
	if md.MethodName == "" {
		return md, fmt.Errorf("--name is required unless --constructor is set")
	}
	return md, nil
}

// --- decode ---

var decodeCmd = &cobra.Command{
	Use:   "decode <descriptor>",
	Short: "Decode a method reference or type descriptor into Java spellings",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	in := args[0]
	if !strings.Contains(in, ";->") {
		t, err := smalisig.ParseType(in)
		if err != nil {
			return outputError("decode", err)
		}
		return outputResult(CLIResult{
			Command: "decode",
			Results: CLIDecoded{Kind: "type", Type: t.String()},
		})
	}

	md, err := smalisig.ParseMethod(in)
	if err != nil {
		return outputError("decode", err)
	}
	return outputResult(CLIResult{
		Command: "decode",
		Results: CLIDecoded{
			Kind:   "method",
			Owner:  md.OwnerClass,
			Name:   md.MethodName,
			Params: typeStrings(md.Parameters),
			Return: md.ReturnType.String(),
		},
	})
}
