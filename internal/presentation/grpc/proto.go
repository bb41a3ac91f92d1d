package grpc

// proto.go defines the gRPC server interface derived from aurora/risk/v1/risk.proto.
// This file serves as a stand-in for buf-generated code. Once `buf generate` is run,
// replace this file with the import from github.com/aurorapay/risk-engine/api/gen/go/aurora/risk/v1.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Full method names for the RiskService.
const (
	RiskService_AssessTransaction_FullMethodName = "/aurora.risk.v1.RiskService/AssessTransaction"
	RiskService_GetAssessment_FullMethodName     = "/aurora.risk.v1.RiskService/GetAssessment"
	RiskService_ListAssessments_FullMethodName   = "/aurora.risk.v1.RiskService/ListAssessments"
)

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	AssessTransaction(context.Context, *AssessTransactionRequest) (*AssessTransactionResponse, error)
	GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error)
	ListAssessments(context.Context, *ListAssessmentsRequest) (*ListAssessmentsResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) AssessTransaction(context.Context, *AssessTransactionRequest) (*AssessTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AssessTransaction not implemented")
}
func (UnimplementedRiskServiceServer) GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetAssessment not implemented")
}
func (UnimplementedRiskServiceServer) ListAssessments(context.Context, *ListAssessmentsRequest) (*ListAssessmentsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListAssessments not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s *grpclib.Server, srv RiskServiceServer) {
	s.RegisterService(&_RiskService_serviceDesc, srv)
}

var _RiskService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: "aurora.risk.v1.RiskService",
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "AssessTransaction", Handler: _RiskService_AssessTransaction_Handler},
		{MethodName: "GetAssessment", Handler: _RiskService_GetAssessment_Handler},
		{MethodName: "ListAssessments", Handler: _RiskService_ListAssessments_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _RiskService_AssessTransaction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(AssessTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).AssessTransaction(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: RiskService_AssessTransaction_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).AssessTransaction(ctx, req.(*AssessTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RiskService_GetAssessment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetAssessmentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).GetAssessment(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: RiskService_GetAssessment_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).GetAssessment(ctx, req.(*GetAssessmentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RiskService_ListAssessments_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListAssessmentsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).ListAssessments(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: RiskService_ListAssessments_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).ListAssessments(ctx, req.(*ListAssessmentsRequest))
	}
	return interceptor(ctx, in, info, handler)
}
