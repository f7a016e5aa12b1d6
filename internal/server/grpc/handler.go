package grpc

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/dmitrijs2005/sentivault/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const chunkSize = 32 << 10

func (s *GRPCServer) Download(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[wrapperspb.BytesValue]) error {
	ctx := stream.Context()
	id := req.GetValue()

	f, err := s.records.Resolve(ctx, id)
	if err != nil {
		return s.statusError(ctx, "resolve", id, err)
	}
	plain, err := s.files.OpenFile(ctx, f)
	if err != nil {
		return s.statusError(ctx, "open", id, err)
	}
	defer plain.Close()

	header := metadata.Pairs(ContentTypeHeader, plain.ContentType, FileNameHeader, plain.Name)
	if err := stream.SendHeader(header); err != nil {
		return err
	}

	buf := make([]byte, chunkSize)
	for {
		n, rerr := plain.Read(buf)
		if n > 0 {
			if err := stream.Send(wrapperspb.Bytes(append([]byte(nil), buf[:n]...))); err != nil {
				return err
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return s.statusError(ctx, "decrypt", id, rerr)
		}
	}

	s.logger.Info(ctx, "file downloaded", "id", id, "kind", string(f.Kind()))
	return nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	f, err := s.records.Delete(ctx, req.GetValue())
	if err != nil {
		return nil, s.statusError(ctx, "delete", req.GetValue(), err)
	}
	s.logger.Info(ctx, "file deleted", "id", f.FileID(), "kind", string(f.Kind()))
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) statusError(ctx context.Context, op, id string, err error) error {
	st := toStatus(err)
	if st.Code() == codes.Internal || st.Code() == codes.DataLoss {
		s.logger.Error(ctx, op+" failed", "id", id, "error", err)
	}
	return st.Err()
}

func toStatus(err error) *status.Status {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.New(codes.NotFound, "not found")
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrParse):
		return status.New(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrBlobMissing):
		return status.New(codes.DataLoss, "stored file is missing")
	case errors.Is(err, common.ErrMalformedCiphertext):
		return status.New(codes.DataLoss, "stored file is corrupt")
	default:
		return status.New(codes.Internal, "internal error")
	}
}

var (
	_ FileIndex = (*services.RecordService)(nil)
	_ FileOpener = (*services.RetrievalService)(nil)
)

// FileIndex finds and deletes stored files of any kind.
type FileIndex interface {
	Resolve(ctx context.Context, id string) (models.StoredFile, error)
	Delete(ctx context.Context, id string) (models.StoredFile, error)
}

// FileOpener decrypts a stored file.
type FileOpener interface {
	OpenFile(ctx context.Context, f models.StoredFile) (*services.Stream, error)
}
