package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/antonio-alexander/go-employee-crud/internal"
	"github.com/antonio-alexander/go-employee-crud/internal/client"
	"github.com/antonio-alexander/go-employee-crud/internal/data"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envs     map[string]string
	address  string
	port     string
	protocol string
	client   interface {
		internal.Configurer
		internal.Opener
		client.Client
	}
}

func newRootCommand(envs map[string]string) *cobra.Command {
	opts := &rootOptions{envs: envs}

	cmd := &cobra.Command{
		Use:           "client",
		Short:         "Manage employee records through the employee service",
		Version:       fmt.Sprintf("%s (%s) built from: %s", Version, GitCommit, GitBranch),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.client.Close(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.address, "address", "", "service address (CLIENT_ADDRESS)")
	cmd.PersistentFlags().StringVar(&opts.port, "port", "", "service port (CLIENT_PORT)")
	cmd.PersistentFlags().StringVar(&opts.protocol, "protocol", "", "http or https (CLIENT_PROTOCOL)")
	cmd.AddCommand(
		newAddCommand(opts),
		newGetAllCommand(opts),
		newGetCommand(opts),
		newUpdateCommand(opts),
		newReplaceCommand(opts),
		newDeleteCommand(opts),
	)
	return cmd
}

// open applies flags over the environment and opens the client
func (o *rootOptions) open(cmd *cobra.Command) error {
	envs := make(map[string]string, len(o.envs))
	for key, value := range o.envs {
		envs[key] = value
	}
	for key, value := range map[string]string{
		"CLIENT_ADDRESS":  o.address,
		"CLIENT_PORT":     o.port,
		"CLIENT_PROTOCOL": o.protocol,
	} {
		if value != "" {
			envs[key] = value
		}
	}
	o.client = client.NewClient()
	if err := o.client.Configure(envs); err != nil {
		return err
	}
	return o.client.Open(cmd.Context())
}

func parseId(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(data.ErrInvalidArgument, "invalid id: %q", arg)
	}
	return id, nil
}

func printJSON(writer io.Writer, item any) error {
	bytes, err := json.MarshalIndent(item, "", " ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(writer, string(bytes))
	return err
}

func employeeFlags(cmd *cobra.Command, employee *data.Employee) {
	cmd.Flags().StringVar(&employee.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&employee.LastName, "last-name", "", "last name")
	cmd.Flags().IntVar(&employee.Age, "age", 0, "age")
	cmd.Flags().StringVar(&employee.Position, "position", "", "position")
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var employee data.Employee

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an employee record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			message, err := opts.client.EmployeeCreate(cmd.Context(), employee)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			return nil
		},
	}
	employeeFlags(cmd, &employee)
	return cmd
}

func newGetAllCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "getall",
		Short: "List every employee record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			employees, err := opts.client.EmployeesReadAll(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), employees)
		},
	}
}

func newGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Read an employee record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			employee, found, err := opts.client.EmployeeRead(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !found {
				return errors.Wrapf(data.ErrNotFound, "employee %d", id)
			}
			return printJSON(cmd.OutOrStdout(), employee)
		},
	}
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <column> <value>",
		Short: "Update a single field (firstName, lastName, age or position)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			employee, found, err := opts.client.EmployeeUpdateField(cmd.Context(), id, args[1], args[2])
			if err != nil {
				return err
			}
			if !found {
				return errors.Wrapf(data.ErrNotFound, "employee %d", id)
			}
			return printJSON(cmd.OutOrStdout(), employee)
		},
	}
}

func newReplaceCommand(opts *rootOptions) *cobra.Command {
	var employee data.Employee

	cmd := &cobra.Command{
		Use:   "replace <id>",
		Short: "Replace every field of an employee record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			employeeReplaced, found, err := opts.client.EmployeeReplace(cmd.Context(), id, employee)
			if err != nil {
				return err
			}
			if !found {
				return errors.Wrapf(data.ErrNotFound, "employee %d", id)
			}
			return printJSON(cmd.OutOrStdout(), employeeReplaced)
		},
	}
	employeeFlags(cmd, &employee)
	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an employee record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			if err := opts.client.EmployeeDelete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), data.MessageRecordDeleted)
			return nil
		},
	}
}
