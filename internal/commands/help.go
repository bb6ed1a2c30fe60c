package commands

import "stock-alert-bot/lib/translation"

func CommandHelp() string {
	return translation.Translate("Available commands:\n" +
		"!stock <symbol> - current price and daily change, e.g. !stock AAPL\n" +
		"!alert add <symbol> <>|<> <price> - notify me when the price crosses a level, e.g. !alert add AAPL > 200\n" +
		"!alert remove <symbol> - delete my alert for a symbol\n" +
		"!alert list - show my alerts\n" +
		"!help - show this message")
}
