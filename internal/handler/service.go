package handler

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "printshop.v1.AppointmentService"

// AppointmentServiceServer is the server API for printshop.v1.AppointmentService.
type AppointmentServiceServer interface {
	EnsureAccount(context.Context, *EnsureAccountRequest) (*AccountResponse, error)
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*CreateAppointmentResponse, error)
	ListMyAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	ListAllAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*AppointmentResponse, error)
	TransitionAppointment(context.Context, *TransitionAppointmentRequest) (*AppointmentResponse, error)
	SetPaid(context.Context, *SetPaidRequest) (*ExistedResponse, error)
	SetAdmin(context.Context, *SetAdminRequest) (*ExistedResponse, error)
	SetSecondaryEmail(context.Context, *SetSecondaryEmailRequest) (*Empty, error)
	SetStatusFilter(context.Context, *StatusFilterRequest) (*Empty, error)
	GetStatusFilter(context.Context, *Empty) (*StatusFilterResponse, error)
	ListAccounts(context.Context, *Empty) (*ListAccountsResponse, error)
	GetUpload(context.Context, *GetUploadRequest) (*GetUploadResponse, error)
}

var _ AppointmentServiceServer = (*Handler)(nil)

// ServiceDesc is written by hand; messages travel as JSON (see CodecName).
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AppointmentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("EnsureAccount", AppointmentServiceServer.EnsureAccount),
		unary("CreateAppointment", AppointmentServiceServer.CreateAppointment),
		unary("ListMyAppointments", AppointmentServiceServer.ListMyAppointments),
		unary("ListAllAppointments", AppointmentServiceServer.ListAllAppointments),
		unary("CancelAppointment", AppointmentServiceServer.CancelAppointment),
		unary("TransitionAppointment", AppointmentServiceServer.TransitionAppointment),
		unary("SetPaid", AppointmentServiceServer.SetPaid),
		unary("SetAdmin", AppointmentServiceServer.SetAdmin),
		unary("SetSecondaryEmail", AppointmentServiceServer.SetSecondaryEmail),
		unary("SetStatusFilter", AppointmentServiceServer.SetStatusFilter),
		unary("GetStatusFilter", AppointmentServiceServer.GetStatusFilter),
		unary("ListAccounts", AppointmentServiceServer.ListAccounts),
		unary("GetUpload", AppointmentServiceServer.GetUpload),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "printshop/v1/appointment.json",
}

func Register(s grpc.ServiceRegistrar, srv AppointmentServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the wire path for a method, e.g. /printshop.v1.AppointmentService/SetPaid.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, fn func(AppointmentServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(AppointmentServiceServer)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*Req))
			})
		},
	}
}
