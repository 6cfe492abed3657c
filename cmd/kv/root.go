package kv

import (
	"github.com/ValentinKolb/maxstore/cmd/util"
	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	kvMedium medium.IMedium
	kvStore  *store.Store

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Read and write a namespaced store",
		PersistentPreRunE:  setupKVStore,
		PersistentPostRunE: closeKVStore,
	}
)

func init() {
	util.SetupMediumFlags(KeyValueCommands)
	util.SetupRPCClientFlags(KeyValueCommands)

	KeyValueCommands.PersistentFlags().String("namespace", store.DefaultNamespace, util.WrapString("Namespace prepended to every key"))

	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(rmCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(dumpCmd)
	KeyValueCommands.AddCommand(removeAllCmd)
	KeyValueCommands.AddCommand(clearCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVStore opens the medium and the store on top of it
func setupKVStore(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	m, err := util.OpenMedium()
	if err != nil {
		return err
	}

	s, err := store.New(m, &store.Options{Namespace: viper.GetString("namespace")})
	if err != nil {
		_ = m.Close()
		return err
	}

	kvMedium = m
	kvStore = s
	return nil
}

func closeKVStore(_ *cobra.Command, _ []string) error {
	if kvMedium == nil {
		return nil
	}
	return kvMedium.Close()
}
