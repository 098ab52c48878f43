package cli

func regCommands() {
	//Chain
	chainCmd.AddCommand(chain_appendCmd)
	chainCmd.AddCommand(chain_verifyCmd)
	chainCmd.AddCommand(chain_exportCmd)

	//Session
	sessionCmd.AddCommand(session_recordCmd)

	//Anchor
	anchorCmd.AddCommand(anchor_upgradeCmd)
	anchorCmd.AddCommand(anchor_statusCmd)

	//Transport
	transportCmd.AddCommand(transport_encodeCmd)
	transportCmd.AddCommand(transport_decodeCmd)

	//Keys
	keysCmd.AddCommand(keys_addCmd)

	//Root
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(anchorCmd)
	rootCmd.AddCommand(transportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(keysCmd)
}
