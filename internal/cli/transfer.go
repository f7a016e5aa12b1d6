package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/sentivault/internal/netx"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	gs "github.com/dmitrijs2005/sentivault/internal/server/grpc"
)

const (
	defaultHTTPServer = "http://127.0.0.1:8080"
	defaultGRPCServer = "127.0.0.1:50051"
)

func newUploadCmd() *cobra.Command {
	var server, user string

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files and print the per-file outcomes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimRight(server, "/") + "/upload"
			body, err := netx.UploadFiles(cmd.Context(), nil, url, user, args)
			if len(body) > 0 {
				var pretty bytes.Buffer
				if json.Indent(&pretty, body, "", "  ") == nil {
					body = pretty.Bytes()
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&server, "server", defaultHTTPServer, "HTTP base URL of the server")
	cmd.Flags().StringVarP(&user, "user", "u", "", "Owner to upload as")
	return cmd
}

func dial(addr string) (*grpc.ClientConn, *gs.FileServiceClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return conn, gs.NewFileServiceClient(conn), nil
}

func newDownloadCmd() *cobra.Command {
	var addr, output string

	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "Stream the decrypted content of a stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, client, err := dial(addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			stream, err := client.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			var n int64
			for {
				chunk, err := stream.Recv()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				m, err := w.Write(chunk.GetValue())
				n += int64(m)
				if err != nil {
					return err
				}
			}

			if output != "" && output != "-" {
				header, _ := stream.Header()
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d bytes (%s)\n",
					output, n, strings.Join(header.Get(gs.ContentTypeHeader), ","))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "grpc", defaultGRPCServer, "gRPC address of the server")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored file and its ciphertext",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, client, err := dial(addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "grpc", defaultGRPCServer, "gRPC address of the server")
	return cmd
}
