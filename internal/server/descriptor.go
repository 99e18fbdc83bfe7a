package server

import (
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const offerProtoFile = "offers/v1/offers.proto"

var (
	registerDescriptorOnce sync.Once
	registerDescriptorErr  error
)

// offerFileDescriptor describes OfferService for reflection clients. Every
// method takes and returns google.protobuf.Struct.
func offerFileDescriptor() *descriptorpb.FileDescriptorProto {
	const structType = ".google.protobuf.Struct"
	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(OfferServiceDesc.Methods))
	for _, m := range OfferServiceDesc.Methods {
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.MethodName),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		})
	}
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(offerProtoFile),
		Package:    proto.String("offers.v1"),
		Dependency: []string{"google/protobuf/struct.proto"},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{Name: proto.String("OfferService"), Method: methods},
		},
		Syntax: proto.String("proto3"),
	}
}

// registerOfferDescriptor adds the offer service file to the global registry
// once per process so reflection can resolve OfferServiceDesc.Metadata.
func registerOfferDescriptor() error {
	registerDescriptorOnce.Do(func() {
		if _, err := protoregistry.GlobalFiles.FindFileByPath(offerProtoFile); err == nil {
			return
		}
		fd, err := protodesc.NewFile(offerFileDescriptor(), protoregistry.GlobalFiles)
		if err != nil {
			registerDescriptorErr = err
			return
		}
		registerDescriptorErr = protoregistry.GlobalFiles.RegisterFile(fd)
	})
	return registerDescriptorErr
}
