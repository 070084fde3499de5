// Package client is the command line interface to a corral backend.
package client

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/repo"
	"github.com/corraldb/corral/rest"
	"github.com/corraldb/corral/statement"
)

var (
	address string
	file    string

	selectFields []string
	orderFields  []string
	descending   bool
	groupField   string
	limitN       int
	skipN        int
	aggField     string
	pageSize     int

	putCmd = &cobra.Command{
		Use:     "put",
		Aliases: []string{"apply"},
		Short:   "Create or update records from file",
		Run:     put,
	}

	getCmd = &cobra.Command{
		Use:   "get [resource/id]",
		Short: "Get a record",
		Args:  cobra.ExactArgs(1),
		Run:   get,
	}

	deleteCmd = &cobra.Command{
		Use:   "delete [resource/id]",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		Run:   del,
	}

	findCmd = &cobra.Command{
		Use:   "find [resource] [filter...]",
		Short: "Find records",
		Args:  cobra.MinimumNArgs(1),
		Run:   find,
	}

	countCmd = &cobra.Command{
		Use:   "count [resource] [filter...]",
		Short: "Count records",
		Args:  cobra.MinimumNArgs(1),
		Run:   count,
	}

	pagesCmd = &cobra.Command{
		Use:   "pages [resource] [filter...]",
		Short: "Find records page by page",
		Args:  cobra.MinimumNArgs(1),
		Run:   pages,
	}
)

func RegisterCommands(root *cobra.Command) {
	v := viper.New()
	v.SetEnvPrefix("CORRAL")
	v.AutomaticEnv()
	v.SetDefault("server", "http://localhost:5052")
	address = v.GetString("server")

	putCmd.Flags().StringVarP(&file, "file", "f", "", "Path to JSON/YAML file")
	putCmd.MarkFlagRequired("file")

	for _, cmd := range []*cobra.Command{findCmd, countCmd, pagesCmd} {
		cmd.Flags().StringSliceVar(&selectFields, "select", nil, "Project to these fields")
		cmd.Flags().StringSliceVar(&orderFields, "order", nil, "Order by these fields")
		cmd.Flags().BoolVar(&descending, "desc", false, "Descending order")
		cmd.Flags().StringVar(&groupField, "group", "", "Group by this field")
	}
	findCmd.Flags().IntVar(&limitN, "limit", 0, "Cap the number of records")
	findCmd.Flags().IntVar(&skipN, "skip", 0, "Skip the first N records")
	countCmd.Flags().StringVar(&aggField, "field", "", "Count non-empty values of this field")
	pagesCmd.Flags().IntVar(&pageSize, "size", 20, "Page size")

	for _, cmd := range []*cobra.Command{putCmd, getCmd, deleteCmd, findCmd, countCmd, pagesCmd} {
		cmd.Flags().StringVar(&address, "server", address, "Backend address")
		root.AddCommand(cmd)
	}
}

func getRepo(resource string) *repo.Repo[api.Record] {
	r, err := repo.NewHTTP[api.Record](address, rest.Meta{
		Model: resource,
		Key:   []string{"id"},
	})
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}
	return r
}

// document is the file format for put: one record with its address.
type document struct {
	Resource string     `json:"resource"`
	Id       string     `json:"id"`
	Record   api.Record `json:"record"`
}

func parseFile(file string) ([]document, error) {
	var data []byte
	var err error

	if file == "-" {
		data, err = os.ReadFile("/dev/stdin")
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}

	var docs []document
	for _, chunk := range strings.Split(string(data), "---\n") {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		var doc document
		if err := yaml.Unmarshal([]byte(chunk), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document: %v", err)
		}
		if doc.Resource == "" || doc.Id == "" {
			return nil, fmt.Errorf("document needs resource and id")
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func put(cmd *cobra.Command, args []string) {
	docs, err := parseFile(file)
	if err != nil {
		log.Fatal(err)
	}

	for _, doc := range docs {
		r := getRepo(doc.Resource)
		_, err := r.Create(context.Background(), doc.Id, &doc.Record)
		if api.IsConflict(err) {
			_, err = r.Update(context.Background(), doc.Id, &doc.Record)
		}
		if err != nil {
			log.Fatalf("failed to put record: %v", err)
		}
		fmt.Println(doc.Resource + "/" + doc.Id)
	}
}

func splitPath(arg string) (string, string) {
	resource, id, ok := strings.Cut(arg, "/")
	if !ok {
		log.Fatal("invalid path. Expected resource/id")
	}
	return resource, id
}

func printYAML(v any) {
	enc, err := yaml.Marshal(v)
	if err != nil {
		log.Fatalf("failed to encode as YAML: %v", err)
	}
	os.Stdout.Write(enc)
}

func get(cmd *cobra.Command, args []string) {
	resource, id := splitPath(args[0])
	rec, err := getRepo(resource).Read(context.Background(), id)
	if err != nil {
		log.Fatalf("failed to get record: %v", err)
	}
	printYAML(rec)
}

func del(cmd *cobra.Command, args []string) {
	resource, id := splitPath(args[0])
	rec, err := getRepo(resource).Delete(context.Background(), id)
	if err != nil {
		log.Fatalf("failed to delete record: %v", err)
	}
	printYAML(rec)
}

func buildStatement(args []string) *statement.Statement {
	cond, err := parseFilters(args[1:])
	if err != nil {
		log.Fatal(err)
	}

	var opts []statement.Option
	if len(selectFields) > 0 {
		opts = append(opts, statement.Select(selectFields...))
	}
	if len(orderFields) > 0 {
		opts = append(opts, statement.OrderBy(orderFields...))
		if descending {
			opts = append(opts, statement.Descending())
		} else {
			opts = append(opts, statement.Ascending())
		}
	}
	if groupField != "" {
		opts = append(opts, statement.GroupBy(groupField))
	}
	if limitN > 0 {
		opts = append(opts, statement.Limit(limitN))
	}
	if skipN > 0 {
		opts = append(opts, statement.Skip(skipN))
	}

	st, err := statement.Find(cond, opts...)
	if err != nil {
		log.Fatal(err)
	}
	return st
}

func find(cmd *cobra.Command, args []string) {
	r := getRepo(args[0])
	st := buildStatement(args)

	if st.GroupBy != "" {
		groups, err := r.Group(context.Background(), st)
		if err != nil {
			log.Fatalf("failed to find records: %v", err)
		}
		printYAML(groups)
		return
	}

	recs, err := r.Find(context.Background(), st)
	if err != nil {
		log.Fatalf("failed to find records: %v", err)
	}
	printYAML(recs)
}

func count(cmd *cobra.Command, args []string) {
	cond, err := parseFilters(args[1:])
	if err != nil {
		log.Fatal(err)
	}
	st, err := statement.Count(aggField, cond)
	if err != nil {
		log.Fatal(err)
	}

	n, err := getRepo(args[0]).Count(context.Background(), st)
	if err != nil {
		log.Fatalf("failed to count records: %v", err)
	}
	fmt.Println(int64(n))
}

func pages(cmd *cobra.Command, args []string) {
	r := getRepo(args[0])
	st := buildStatement(args)

	pager, err := r.Pages(st, pageSize)
	if err != nil {
		log.Fatal(err)
	}

	for {
		recs, err := pager.Next(context.Background())
		if err != nil {
			log.Fatalf("failed to fetch page %d: %v", pager.Current()+1, err)
		}
		if len(recs) == 0 {
			return
		}
		fmt.Printf("# page %d of %d records\n", pager.Current(), pager.Total())
		printYAML(recs)
	}
}
