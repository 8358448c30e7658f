package commands

// Callback data identifiers for inline keyboards
const (
	CallbackMainMenu = "main_menu"
	CallbackProfile  = "profile"
	CallbackConnect  = "connect"
	CallbackTopUp    = "topup"
	CallbackSupport  = "support"
	CallbackActivate = "activate"
	CallbackPause    = "pause"
	CallbackGetKey   = "get_key"

	// Admin deposit resolution callbacks carry the request id after the colon
	CallbackDepositApprovePrefix = "dep_ok:"
	CallbackDepositRejectPrefix  = "dep_no:"
)

// Bot commands
const (
	CmdStart   = "/start"
	CmdDeposit = "/dep"
	CmdBan     = "/ban"
	CmdUnban   = "/unban"
	CmdGrant   = "/grant"
)
