package kv

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ValentinKolb/maxstore/lib/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Long:  "Sets the value for a key. A value that is valid JSON is stored as JSON, anything else as a string.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expire, err := cmd.Flags().GetDuration("expire")
			if err != nil {
				return err
			}
			h, err := kvStore.SetItem(store.Item{
				Key:    args[0],
				Value:  parseValue(args[1]),
				Expire: expire,
			})
			if err != nil {
				return err
			}
			fmt.Printf("set %s successfully\n", h.LogicalKey)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := kvStore.GetItem(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("key=%s, found=false\n", args[0])
				return nil
			}
			fmt.Println(string(value))
			return nil
		},
	}
	rmCmd = &cobra.Command{
		Use:   "rm [key]",
		Short: "Removes a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := kvStore.RemoveItem(args[0], nil)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, removed=%t\n", args[0], removed)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all live keys of the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := kvStore.Keys()
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}
	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Prints every live entry of the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			return dump(os.Stdout, kvStore, format)
		},
	}
	removeAllCmd = &cobra.Command{
		Use:   "remove-all",
		Short: "Removes every entry of the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := kvStore.RemoveAll()
			if err != nil {
				return err
			}
			fmt.Printf("removed %d entries from namespace %s\n", n, kvStore.Namespace())
			return nil
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Wipes the whole medium, including other namespaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}
			if !all {
				return fmt.Errorf("clear removes the data of every namespace, pass --all to confirm or use remove-all")
			}
			if err := kvStore.Clear(); err != nil {
				return err
			}
			fmt.Println("medium cleared")
			return nil
		},
	}
)

func init() {
	setCmd.Flags().Duration("expire", 0, "time to live of the entry (e.g. 10s, 5m), 0 keeps it forever")
	dumpCmd.Flags().String("format", "json", "output format (json, yaml)")
	clearCmd.Flags().Bool("all", false, "confirm that every namespace of the medium is wiped")
}

// parseValue returns arg as JSON if it is valid JSON, otherwise as string
func parseValue(arg string) any {
	if json.Valid([]byte(arg)) {
		return json.RawMessage(arg)
	}
	return arg
}

// dump writes all live entries of s to w in the given format
func dump(w io.Writer, s *store.Store, format string) error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	entries, err := s.GetItemsMapping(keys)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		doc := make(map[string]any, len(entries))
		for k, raw := range entries {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			doc[k] = v
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		enc.SetIndent(2)
		return enc.Encode(doc)
	default:
		return fmt.Errorf("invalid format %s (expected json or yaml)", format)
	}
}

// sortedKeys returns the keys of m in ascending order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
