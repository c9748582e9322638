package web

// Single-page dashboard: balances, listings, the offer form and an activity
// feed fed by the SSE stream.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Gridmarket</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Press+Start+2P&family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:flex-start;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    body::before {
      content:'';
      position:fixed;
      inset:0;
      background:
        linear-gradient(90deg, rgba(0,0,0,.02) 1px, transparent 1px),
        linear-gradient(rgba(0,0,0,.02) 1px, transparent 1px);
      background-size:12px 12px;
      pointer-events:none;
    }
    #app {
      width:min(1200px, 96vw);
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      position:relative;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
      display:grid;
      grid-template-columns:1fr 340px;
      gap:2rem;
    }
    #app::after {
      content:'';
      position:absolute;
      inset:8px;
      border:1px dashed rgba(0,0,0,.15);
      pointer-events:none;
    }
    .main { display:flex; flex-direction:column; gap:1.5rem; }
    header { display:flex; justify-content:space-between; align-items:flex-start; gap:1rem; }
    .eyebrow {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.55rem;
      text-transform:uppercase;
      letter-spacing:.2em;
      margin:0;
    }
    .account { font-size:.6rem; color:var(--ink-mid); margin-top:.6rem; word-break:break-all; }
    .status {
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      border:2px solid var(--ink);
      padding:.4rem .9rem;
      background:#ffffff;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .status.stale { border-color:#d7263d; color:#d7263d; }
    .card {
      border:3px solid var(--ink);
      padding:1.2rem;
      background:#fff;
      box-shadow:8px 8px 0 rgba(0,0,0,.15);
    }
    .card h2 {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.12em;
      margin:0 0 1rem;
      padding-bottom:.8rem;
      border-bottom:2px solid var(--ink);
    }
    .balances { display:flex; gap:1rem; flex-wrap:wrap; }
    .balance {
      border:2px solid var(--ink);
      padding:.8rem 1.2rem;
      background:#fefefe;
      box-shadow:4px 4px 0 rgba(0,0,0,.12);
      min-width:160px;
    }
    .balance .label { font-size:.55rem; text-transform:uppercase; letter-spacing:.15em; color:var(--ink-mid); }
    .balance .value { margin-top:.5rem; font-size:1.2rem; font-weight:700; }
    table { width:100%; border-collapse:collapse; font-size:.7rem; }
    th {
      text-align:left;
      text-transform:uppercase;
      letter-spacing:.1em;
      font-size:.55rem;
      color:var(--ink-mid);
      padding:.4rem .6rem;
      border-bottom:2px solid var(--ink);
    }
    td { padding:.5rem .6rem; border-bottom:1px dashed var(--ink-soft); vertical-align:middle; }
    td.seller { word-break:break-all; font-size:.6rem; color:var(--ink-mid); }
    button {
      font-family:inherit;
      font-size:.6rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      padding:.45rem .9rem;
      border:2px solid var(--ink);
      background:#fff;
      cursor:pointer;
      box-shadow:3px 3px 0 rgba(0,0,0,.2);
    }
    button:hover { background:var(--ink); color:#fff; }
    button:disabled { color:var(--ink-soft); border-color:var(--ink-soft); cursor:default; box-shadow:none; background:#fff; }
    .own { font-size:.55rem; text-transform:uppercase; letter-spacing:.1em; color:var(--ink-soft); }
    .phase { font-size:.6rem; text-transform:uppercase; letter-spacing:.1em; }
    .phase.failed { color:#d7263d; }
    .phase.done { color:#1b9aaa; }
    form { display:flex; flex-wrap:wrap; gap:.8rem; align-items:flex-end; }
    .field { display:flex; flex-direction:column; gap:.4rem; }
    .field label { font-size:.55rem; text-transform:uppercase; letter-spacing:.15em; color:var(--ink-mid); }
    input {
      font-family:inherit;
      font-size:.75rem;
      padding:.5rem .7rem;
      border:2px solid var(--ink);
      background:#fff;
      width:150px;
    }
    .offer-state { margin-top:1rem; font-size:.65rem; line-height:1.5; }
    .offer-state .msg { color:var(--ink-mid); }
    .empty {
      border:2px dashed var(--ink-soft);
      padding:1.5rem;
      text-align:center;
      font-size:.65rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      color:var(--ink-mid);
    }
    aside { display:flex; flex-direction:column; max-height:calc(100vh - 8rem); overflow-y:auto; }
    .activity-entry {
      border:2px solid var(--ink);
      padding:.8rem;
      background:#fff;
      box-shadow:4px 4px 0 rgba(0,0,0,.12);
      font-size:.6rem;
      line-height:1.5;
      margin-bottom:.8rem;
    }
    .activity-entry .head { display:flex; justify-content:space-between; gap:.5rem; margin-bottom:.4rem; }
    .activity-kind { font-weight:700; text-transform:uppercase; letter-spacing:.1em; }
    .activity-kind.confirmed { color:#1b9aaa; }
    .activity-kind.failed { color:#d7263d; }
    .activity-time { color:var(--ink-mid); }
    .activity-detail { color:var(--ink-mid); word-break:break-all; }
    @media (max-width:800px) {
      #app { grid-template-columns:1fr; }
      aside { max-height:360px; }
    }
  </style>
</head>
<body>
  <div id="app">
    <div class="main">
      <header>
        <div>
          <p class="eyebrow">gridmarket</p>
          <div id="account" class="account"></div>
        </div>
        <div id="conn-status" class="status">Connecting…</div>
      </header>
      <section class="card">
        <h2>Balances</h2>
        <div id="balances" class="balances"><div class="empty">Waiting for snapshot…</div></div>
      </section>
      <section class="card">
        <h2>Create listing</h2>
        <form id="offerForm">
          <div class="field">
            <label for="offerAmount">Amount (ETKN)</label>
            <input id="offerAmount" autocomplete="off" placeholder="10" />
          </div>
          <div class="field">
            <label for="offerPrice">Price (ETH)</label>
            <input id="offerPrice" autocomplete="off" placeholder="0.05" />
          </div>
          <button type="button" id="approveBtn">Approve</button>
          <button type="button" id="createBtn">Create sale</button>
          <button type="button" id="resetBtn">Reset</button>
        </form>
        <div class="offer-state">
          <span id="offerPhase" class="phase">idle</span>
          <div id="offerMessage" class="msg"></div>
        </div>
      </section>
      <section class="card">
        <h2>Listings</h2>
        <div id="listings"><div class="empty">Waiting for snapshot…</div></div>
      </section>
    </div>
    <aside>
      <section class="card">
        <h2>Activity</h2>
        <div id="activity"><div class="empty">No activity yet</div></div>
      </section>
    </aside>
  </div>
<script>
const statusEl = document.getElementById('conn-status');
const accountEl = document.getElementById('account');
const balancesEl = document.getElementById('balances');
const listingsEl = document.getElementById('listings');
const offerPhaseEl = document.getElementById('offerPhase');
const offerMessageEl = document.getElementById('offerMessage');
const activityEl = document.getElementById('activity');
let activityEmpty = true;

const phaseClass = (phase) => {
  if(phase === 'failed'){ return 'phase failed'; }
  if(phase === 'created' || phase === 'purchased' || phase === 'approved'){ return 'phase done'; }
  return 'phase';
};

function renderBalances(data){
  balancesEl.innerHTML = '';
  if(!data.balances || data.balances.length === 0){
    balancesEl.innerHTML = '<div class="empty">No balances</div>';
    return;
  }
  for(const bal of data.balances){
    const box = document.createElement('div');
    box.className = 'balance';
    const label = document.createElement('div');
    label.className = 'label';
    label.textContent = bal.symbol;
    const value = document.createElement('div');
    value.className = 'value';
    value.textContent = bal.balance;
    box.append(label, value);
    balancesEl.appendChild(box);
  }
}

function renderListings(data){
  if(!data.listings || data.listings.length === 0){
    listingsEl.innerHTML = '<div class="empty">No active listings</div>';
    return;
  }
  const table = document.createElement('table');
  table.innerHTML = '<thead><tr><th>ID</th><th>Seller</th><th>Amount</th><th>Price (ETH)</th><th>Status</th><th></th></tr></thead>';
  const body = document.createElement('tbody');
  for(const sale of data.listings){
    const row = document.createElement('tr');

    const id = document.createElement('td');
    id.textContent = sale.id;
    const seller = document.createElement('td');
    seller.className = 'seller';
    seller.textContent = sale.seller;
    const amount = document.createElement('td');
    amount.textContent = sale.amount;
    const price = document.createElement('td');
    price.textContent = sale.price;

    const status = document.createElement('td');
    const phase = document.createElement('span');
    phase.className = phaseClass(sale.status);
    phase.textContent = sale.status === 'idle' ? '' : sale.status;
    phase.title = sale.message || '';
    status.appendChild(phase);

    const action = document.createElement('td');
    if(sale.own){
      const tag = document.createElement('span');
      tag.className = 'own';
      tag.textContent = 'your listing';
      action.appendChild(tag);
    } else {
      const btn = document.createElement('button');
      btn.textContent = 'Buy';
      btn.disabled = sale.status === 'purchasing';
      btn.addEventListener('click', () => purchase(sale.id, btn));
      action.appendChild(btn);
    }

    row.append(id, seller, amount, price, status, action);
    body.appendChild(row);
  }
  table.appendChild(body);
  listingsEl.innerHTML = '';
  listingsEl.appendChild(table);
}

function renderOffer(state){
  offerPhaseEl.className = phaseClass(state.phase);
  offerPhaseEl.textContent = state.phase;
  offerMessageEl.textContent = state.message || '';
}

async function refresh(){
  try {
    const resp = await fetch('/api/overview');
    if(!resp.ok){ throw new Error('overview ' + resp.status); }
    const data = await resp.json();
    accountEl.textContent = data.account || '';
    renderBalances(data);
    renderListings(data);
    renderOffer(data.offer || { phase:'idle' });
    const stale = data.balances_stale || data.listings_stale;
    statusEl.textContent = stale ? 'Stale data' : 'Live';
    statusEl.className = stale ? 'status stale' : 'status';
  } catch (err) {
    statusEl.textContent = 'Offline';
    statusEl.className = 'status stale';
  }
}

async function post(path, payload){
  const resp = await fetch(path, {
    method:'POST',
    headers:{ 'Content-Type':'application/json' },
    body: JSON.stringify(payload || {})
  });
  if(!resp.ok){
    const text = await resp.text();
    offerMessageEl.textContent = text.trim();
  }
  await refresh();
}

async function purchase(id, btn){
  btn.disabled = true;
  await post('/api/purchase', { id:id });
}

document.getElementById('approveBtn').addEventListener('click', () => {
  post('/api/offer/approve', { amount: document.getElementById('offerAmount').value });
});
document.getElementById('createBtn').addEventListener('click', () => {
  post('/api/offer/create', {
    amount: document.getElementById('offerAmount').value,
    price: document.getElementById('offerPrice').value
  });
});
document.getElementById('resetBtn').addEventListener('click', () => {
  post('/api/offer/reset', {});
});

function appendActivity(entry){
  if(activityEmpty){
    activityEl.innerHTML = '';
    activityEmpty = false;
  }
  const card = document.createElement('div');
  card.className = 'activity-entry';

  const head = document.createElement('div');
  head.className = 'head';
  const kind = document.createElement('span');
  kind.className = 'activity-kind ' + (entry.outcome || '');
  kind.textContent = (entry.kind || '').replace('_', ' ') + ' · ' + (entry.outcome || '');
  const time = document.createElement('span');
  time.className = 'activity-time';
  const ts = entry.ts ? new Date(entry.ts) : null;
  time.textContent = ts && !Number.isNaN(ts.getTime()) ? ts.toLocaleTimeString([], { hour12:false }) : '';
  head.append(kind, time);

  const detail = document.createElement('div');
  detail.className = 'activity-detail';
  const bits = [];
  if(entry.amount){ bits.push(entry.amount + ' ' + (entry.asset || '')); }
  if(entry.price){ bits.push(entry.price + ' ETH'); }
  if(entry.sale_id !== undefined && entry.sale_id !== null){ bits.push('sale #' + entry.sale_id); }
  if(entry.message){ bits.push(entry.message); }
  detail.textContent = bits.join(' · ');

  card.append(head, detail);
  activityEl.prepend(card);
  while(activityEl.children.length > 50){
    activityEl.removeChild(activityEl.lastChild);
  }
}

function connectActivity(){
  const source = new EventSource('/activity/stream');
  source.onmessage = (event) => {
    try { appendActivity(JSON.parse(event.data)); } catch (err) { /* skip bad frame */ }
  };
  source.onerror = () => {
    source.close();
    setTimeout(connectActivity, 5000);
  };
}

refresh();
setInterval(refresh, 2000);
connectActivity();
</script>
</body>
</html>`
