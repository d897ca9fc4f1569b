package langid

import (
	"fmt"
	"strings"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Field numbers of langid.LanguageIdentifier.
const (
	FieldNumFeats   protoreflect.FieldNumber = 1
	FieldNumLangs   protoreflect.FieldNumber = 2
	FieldNumStates  protoreflect.FieldNumber = 3
	FieldTkNextmove protoreflect.FieldNumber = 4
	FieldTkOutputC  protoreflect.FieldNumber = 5
	FieldTkOutputS  protoreflect.FieldNumber = 6
	FieldTkOutput   protoreflect.FieldNumber = 7
	FieldNbPC       protoreflect.FieldNumber = 8
	FieldNbPTC      protoreflect.FieldNumber = 9
	FieldNbClasses  protoreflect.FieldNumber = 10
)

const messageName = "LanguageIdentifier"

// SchemaProto is the text form of the message descriptor returned by Schema.
const SchemaProto = `syntax = "proto2";

package langid;

message LanguageIdentifier {
  required int32 num_feats = 1;
  required int32 num_langs = 2;
  required int32 num_states = 3;
  repeated uint32 tk_nextmove = 4 [packed = true];
  repeated uint32 tk_output_c = 5 [packed = true];
  repeated uint32 tk_output_s = 6 [packed = true];
  repeated uint32 tk_output = 7 [packed = true];
  repeated double nb_pc = 8 [packed = true];
  repeated double nb_ptc = 9 [packed = true];
  repeated string nb_classes = 10;
}
`

var (
	schemaOnce sync.Once
	schemaDesc protoreflect.MessageDescriptor
	schemaErr  error
)

// Schema returns the descriptor of langid.LanguageIdentifier.
func Schema() (protoreflect.MessageDescriptor, error) {
	schemaOnce.Do(func() {
		fd, err := protodesc.NewFile(schemaFile(), new(protoregistry.Files))
		if err != nil {
			schemaErr = fmt.Errorf("langid: build schema: %w", err)
			return
		}
		schemaDesc = fd.Messages().ByName(messageName)
	})
	return schemaDesc, schemaErr
}

func schemaFile() *descriptorpb.FileDescriptorProto {
	required := descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	packed := &descriptorpb.FieldOptions{Packed: proto.Bool(true)}

	field := func(name string, num protoreflect.FieldNumber, label descriptorpb.FieldDescriptorProto_Label, typ descriptorpb.FieldDescriptorProto_Type, opts *descriptorpb.FieldOptions) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:    proto.String(name),
			Number:  proto.Int32(int32(num)),
			Label:   label.Enum(),
			Type:    typ.Enum(),
			Options: opts,
		}
	}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("langid.proto"),
		Package: proto.String("langid"),
		Syntax:  proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String(messageName),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("num_feats", FieldNumFeats, required, descriptorpb.FieldDescriptorProto_TYPE_INT32, nil),
				field("num_langs", FieldNumLangs, required, descriptorpb.FieldDescriptorProto_TYPE_INT32, nil),
				field("num_states", FieldNumStates, required, descriptorpb.FieldDescriptorProto_TYPE_INT32, nil),
				field("tk_nextmove", FieldTkNextmove, repeated, descriptorpb.FieldDescriptorProto_TYPE_UINT32, packed),
				field("tk_output_c", FieldTkOutputC, repeated, descriptorpb.FieldDescriptorProto_TYPE_UINT32, packed),
				field("tk_output_s", FieldTkOutputS, repeated, descriptorpb.FieldDescriptorProto_TYPE_UINT32, packed),
				field("tk_output", FieldTkOutput, repeated, descriptorpb.FieldDescriptorProto_TYPE_UINT32, packed),
				field("nb_pc", FieldNbPC, repeated, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, packed),
				field("nb_ptc", FieldNbPTC, repeated, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, packed),
				field("nb_classes", FieldNbClasses, repeated, descriptorpb.FieldDescriptorProto_TYPE_STRING, nil),
			},
		}},
	}
}

// QuoteLabel wraps a class label in double quotes. The protobuf artifact
// stores labels in this form, quotes included, because existing consumers
// read them that way. No escaping is applied.
func QuoteLabel(label string) string {
	return `"` + label + `"`
}

// UnquoteLabel strips one pair of surrounding double quotes, if present.
func UnquoteLabel(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// MarshalProto serializes t as one langid.LanguageIdentifier message.
// Output is deterministic for a given table set.
func MarshalProto(t *Tables) ([]byte, error) {
	md, err := Schema()
	if err != nil {
		return nil, err
	}
	msg := dynamicpb.NewMessage(md)
	fields := md.Fields()

	msg.Set(fields.ByNumber(FieldNumFeats), protoreflect.ValueOfInt32(int32(t.NumFeats)))
	msg.Set(fields.ByNumber(FieldNumLangs), protoreflect.ValueOfInt32(int32(t.NumLangs)))
	msg.Set(fields.ByNumber(FieldNumStates), protoreflect.ValueOfInt32(int32(t.NumStates)))

	appendUint32s(msg, fields.ByNumber(FieldTkNextmove), t.TkNextmove)
	appendUint32s(msg, fields.ByNumber(FieldTkOutputC), t.TkOutputC)
	appendUint32s(msg, fields.ByNumber(FieldTkOutputS), t.TkOutputS)
	appendUint32s(msg, fields.ByNumber(FieldTkOutput), t.TkOutput)

	appendFloat64s(msg, fields.ByNumber(FieldNbPC), t.NbPC)
	appendFloat64s(msg, fields.ByNumber(FieldNbPTC), t.NbPTC)

	if len(t.NbClasses) > 0 {
		classes := msg.Mutable(fields.ByNumber(FieldNbClasses)).List()
		for _, c := range t.NbClasses {
			classes.Append(protoreflect.ValueOfString(QuoteLabel(c)))
		}
	}

	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("langid: marshal: %w", err)
	}
	return b, nil
}

// UnmarshalProto decodes a message produced by MarshalProto and validates
// the packed tables. Labels are returned without their stored quotes.
func UnmarshalProto(b []byte) (*Tables, error) {
	md, err := Schema()
	if err != nil {
		return nil, err
	}
	msg := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("%w: decode protobuf: %v", ErrInvalidModel, err)
	}
	fields := md.Fields()

	t := &Tables{
		Sizes: Sizes{
			NumFeats:  int(msg.Get(fields.ByNumber(FieldNumFeats)).Int()),
			NumLangs:  int(msg.Get(fields.ByNumber(FieldNumLangs)).Int()),
			NumStates: int(msg.Get(fields.ByNumber(FieldNumStates)).Int()),
		},
		TkNextmove: uint32s(msg, fields.ByNumber(FieldTkNextmove)),
		TkOutputC:  uint32s(msg, fields.ByNumber(FieldTkOutputC)),
		TkOutputS:  uint32s(msg, fields.ByNumber(FieldTkOutputS)),
		TkOutput:   uint32s(msg, fields.ByNumber(FieldTkOutput)),
		NbPC:       float64s(msg, fields.ByNumber(FieldNbPC)),
		NbPTC:      float64s(msg, fields.ByNumber(FieldNbPTC)),
	}

	classes := msg.Get(fields.ByNumber(FieldNbClasses)).List()
	t.NbClasses = make([]string, classes.Len())
	for i := range classes.Len() {
		t.NbClasses[i] = UnquoteLabel(classes.Get(i).String())
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func appendUint32s(msg *dynamicpb.Message, fd protoreflect.FieldDescriptor, vals []uint32) {
	if len(vals) == 0 {
		return
	}
	list := msg.Mutable(fd).List()
	for _, v := range vals {
		list.Append(protoreflect.ValueOfUint32(v))
	}
}

func appendFloat64s(msg *dynamicpb.Message, fd protoreflect.FieldDescriptor, vals []float64) {
	if len(vals) == 0 {
		return
	}
	list := msg.Mutable(fd).List()
	for _, v := range vals {
		list.Append(protoreflect.ValueOfFloat64(v))
	}
}

func uint32s(msg *dynamicpb.Message, fd protoreflect.FieldDescriptor) []uint32 {
	list := msg.Get(fd).List()
	out := make([]uint32, list.Len())
	for i := range out {
		out[i] = uint32(list.Get(i).Uint())
	}
	return out
}

func float64s(msg *dynamicpb.Message, fd protoreflect.FieldDescriptor) []float64 {
	list := msg.Get(fd).List()
	out := make([]float64, list.Len())
	for i := range out {
		out[i] = list.Get(i).Float()
	}
	return out
}
