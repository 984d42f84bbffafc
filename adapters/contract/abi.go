package contract

// ABI fragments for the two contracts the burn flow touches: the NFT
// collection (approval surface) and the burn manager (fee, quota and the
// fee-bearing batch burn).
const (
	nftABI = `[
		{"type":"function","name":"isApprovedForAll","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
		{"type":"function","name":"setApprovalForAll","stateMutability":"nonpayable","inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]}
	]`

	managerABI = `[
		{"type":"function","name":"getBurnFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"BurnAmount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint16"}]},
		{"type":"function","name":"createPremium","stateMutability":"payable","inputs":[{"name":"tokenIds","type":"uint32[]"},{"name":"update_id","type":"uint32"}],"outputs":[]}
	]`
)
