package server

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>CoinButler</title>
<style>
body { font-family: monospace; margin: 2em; background: #fafafa; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th { background: #eee; }
td.market, th.market { text-align: left; }
.pos { color: #0a7a2f; }
.neg { color: #c0392b; }
.muted { color: #888; }
</style>
</head>
<body>
<h1>CoinButler status</h1>

<p>
daily PnL: <b class="{{if lt .DailyPnL 0.0}}neg{{else}}pos{{end}}">{{printf "%.0f" .DailyPnL}} KRW</b>
&nbsp;|&nbsp; total realized PnL: <b class="{{if lt .TotalPnL 0.0}}neg{{else}}pos{{end}}">{{printf "%.0f" .TotalPnL}} KRW</b>
&nbsp;|&nbsp; generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}
</p>

<h2>Open positions ({{len .Positions}})</h2>
{{if .Positions}}
<table>
<tr><th class="market">Market</th><th>Entry</th><th>Quantity</th><th>Opened</th></tr>
{{range .Positions}}
<tr>
<td class="market">{{.Market}}</td>
<td>{{printf "%.2f" .EntryPrice}}</td>
<td>{{printf "%.8f" .Quantity}}</td>
<td>{{.OpenedAt.Format "01-02 15:04"}}</td>
</tr>
{{end}}
</table>
{{else}}<p class="muted">none</p>{{end}}

<h2>Balance</h2>
{{if .BalanceAvailable}}
<table>
<tr><th class="market">Currency</th><th>Available</th><th>Locked</th></tr>
{{range .Balances}}
<tr><td class="market">{{.Currency}}</td><td>{{printf "%.8f" .Available}}</td><td>{{printf "%.8f" .Locked}}</td></tr>
{{end}}
</table>
{{else}}<p class="muted">balance unavailable</p>{{end}}

<h2>Trades ({{len .Trades}})</h2>
{{if .Trades}}
<table>
<tr><th>Time</th><th class="market">Market</th><th>Action</th><th>Price</th><th>Quantity</th><th>PnL</th></tr>
{{range .Trades}}
<tr>
<td>{{.Timestamp.Format "01-02 15:04:05"}}</td>
<td class="market">{{.Market}}</td>
<td>{{.Action}}</td>
<td>{{printf "%.2f" .Price}}</td>
<td>{{printf "%.8f" .Quantity}}</td>
<td class="{{if lt .PnL 0.0}}neg{{else}}pos{{end}}">{{printf "%.0f" .PnL}}</td>
</tr>
{{end}}
</table>
{{else}}<p class="muted">no trades yet</p>{{end}}

</body>
</html>
`
