package gateway

// Minimal ABI fragments for the contracts the client touches. Only the
// functions actually called are declared; the full artifacts live with the
// contract deployment, not here.

const erc20ABI = `[
  {
    "name": "balanceOf",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "account", "type": "address"}],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "name": "approve",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "spender", "type": "address"},
      {"name": "value", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  },
  {
    "name": "allowance",
    "type": "function",
    "stateMutability": "view",
    "inputs": [
      {"name": "owner", "type": "address"},
      {"name": "spender", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "uint256"}]
  }
]`

const marketplaceABI = `[
  {
    "name": "nextSaleId",
    "type": "function",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "name": "sales",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "", "type": "uint256"}],
    "outputs": [
      {"name": "id", "type": "uint256"},
      {"name": "seller", "type": "address"},
      {"name": "tokenContract", "type": "address"},
      {"name": "amount", "type": "uint256"},
      {"name": "price", "type": "uint256"},
      {"name": "active", "type": "bool"}
    ]
  },
  {
    "name": "createSale",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "tokenContract", "type": "address"},
      {"name": "amount", "type": "uint256"},
      {"name": "price", "type": "uint256"}
    ],
    "outputs": []
  },
  {
    "name": "executeSale",
    "type": "function",
    "stateMutability": "payable",
    "inputs": [{"name": "saleId", "type": "uint256"}],
    "outputs": []
  }
]`
